package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type ExecutorConfig struct {
	Python           string `mapstructure:"python"`
	RunnerScript     string `mapstructure:"runner_script"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	StopGraceSeconds int    `mapstructure:"stop_grace_seconds"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type KatasConfig struct {
	Dir string `mapstructure:"dir"`
}

type HintsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Katas    KatasConfig    `mapstructure:"katas"`
	Hints    HintsConfig    `mapstructure:"hints"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("katas")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.katas")

	v.SetDefault("server.port", 8080)
	v.SetDefault("executor.python", "python3")
	v.SetDefault("executor.runner_script", "./runner/sandbox_runner.py")
	v.SetDefault("executor.timeout_seconds", 10)
	v.SetDefault("executor.stop_grace_seconds", 3)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".katas", "katas.db"))
	v.SetDefault("katas.dir", "./katas")

	if err := v.ReadInConfig(); err != nil {
		// Defaults are enough to run; only a broken file is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand environment variables in the hints API key
	if strings.HasPrefix(cfg.Hints.APIKey, "${") && strings.HasSuffix(cfg.Hints.APIKey, "}") {
		cfg.Hints.APIKey = os.Getenv(cfg.Hints.APIKey[2 : len(cfg.Hints.APIKey)-1])
	}

	return &cfg, nil
}

// Timeout returns the bounded execution deadline.
func (e ExecutorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// StopGrace returns how long stop waits before force-killing.
func (e ExecutorConfig) StopGrace() time.Duration {
	return time.Duration(e.StopGraceSeconds) * time.Second
}

// HintsEnabled reports whether an AI hint provider is configured.
func (c *Config) HintsEnabled() bool {
	return c.Hints.BaseURL != "" && c.Hints.Model != ""
}
