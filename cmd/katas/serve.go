package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/algorisys-oss/python-opencv-katas/internal/config"
	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
	"github.com/algorisys-oss/python-opencv-katas/internal/hint"
	"github.com/algorisys-oss/python-opencv-katas/internal/kata"
	"github.com/algorisys-oss/python-opencv-katas/internal/server"
	"github.com/algorisys-oss/python-opencv-katas/internal/storage/sqlite"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the katas web server",
	Long: `Start the katas HTTP server with the execution API and run history.

Examples:
  katas serve
  katas serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Open run history storage
	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// Load kata catalog
	catalog, err := kata.LoadDir(cfg.Katas.Dir)
	if err != nil {
		return fmt.Errorf("loading katas: %w", err)
	}
	if n := len(catalog.List()); n > 0 {
		log.Printf("Katas: %d exercises loaded from %s", n, cfg.Katas.Dir)
	} else {
		log.Printf("Katas: no exercises found in %s", cfg.Katas.Dir)
	}

	sandbox := executor.NewSandbox(cfg.Executor.Python, cfg.Executor.RunnerScript, cfg.Executor.Timeout())
	registry := executor.NewRegistry(cfg.Executor.StopGrace())
	desktop := executor.NewDesktop(cfg.Executor.Python, registry)

	var explainer *hint.Explainer
	if cfg.HintsEnabled() {
		explainer = hint.New(cfg.Hints.BaseURL, cfg.Hints.APIKey, cfg.Hints.Model)
		log.Printf("Hints: enabled (%s)", cfg.Hints.Model)
	} else {
		log.Println("Hints: disabled")
	}

	// Determine port
	port := cfg.Server.Port
	if portFlag > 0 {
		port = portFlag
	}

	// Create and start server
	srv := server.New(cfg, store, sandbox, desktop, catalog, explainer)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		srv.Shutdown(context.Background())
	}()

	return srv.Start(port)
}

// loadConfig loads the config file and applies the persistent CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if pythonFlag != "" {
		cfg.Executor.Python = pythonFlag
	}
	if runnerFlag != "" {
		cfg.Executor.RunnerScript = runnerFlag
	}
	return cfg, nil
}
