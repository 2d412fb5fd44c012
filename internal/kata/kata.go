// Package kata loads the exercise catalog served to learners. Each kata is
// one YAML file in the catalog directory; the file name (without extension)
// is its slug.
package kata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kata is one exercise definition.
type Kata struct {
	Slug        string   `yaml:"-" json:"slug"`
	Title       string   `yaml:"title" json:"title"`
	Difficulty  string   `yaml:"difficulty" json:"difficulty"`
	Description string   `yaml:"description" json:"description"`
	StarterCode string   `yaml:"starter_code" json:"starter_code"`
	Hints       []string `yaml:"hints" json:"hints,omitempty"`
}

// Catalog is an in-memory, read-only set of katas keyed by slug.
type Catalog struct {
	katas map[string]Kata
}

// LoadDir reads every .yaml file in dir into a catalog. A missing directory
// yields an empty catalog, not an error: the server runs fine without
// bundled exercises.
func LoadDir(dir string) (*Catalog, error) {
	c := &Catalog{katas: make(map[string]Kata)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading katas dir %s: %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		k, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		k.Slug = strings.TrimSuffix(name, ".yaml")
		c.katas[k.Slug] = k
	}
	return c, nil
}

func loadFile(path string) (Kata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Kata{}, fmt.Errorf("reading kata %s: %w", path, err)
	}

	var k Kata
	if err := yaml.Unmarshal(data, &k); err != nil {
		return Kata{}, fmt.Errorf("parsing kata %s: %w", path, err)
	}
	return k, nil
}

// List returns all katas sorted by slug.
func (c *Catalog) List() []Kata {
	out := make([]Kata, 0, len(c.katas))
	for _, k := range c.katas {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Get returns the kata with the given slug.
func (c *Catalog) Get(slug string) (Kata, bool) {
	k, ok := c.katas[slug]
	return k, ok
}
