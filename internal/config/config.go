// Package config loads sonobatd.yaml server configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const dbPathEnvVar = "SONOBAT_DB_PATH"
const defaultDBPath = "sonobat.db"

// Bounds mirrors eval.Bounds in yaml-friendly form, letting an operator
// override the evaluator's resource limits without a rebuild.
type Bounds struct {
	MaxIterations int    `yaml:"max_iterations,omitempty"`
	MaxTuples     int    `yaml:"max_tuples,omitempty"`
	MaxRules      int    `yaml:"max_rules,omitempty"`
	Timeout       string `yaml:"timeout,omitempty"` // Go duration string, e.g. "5s"
}

// GetTimeout parses Timeout, falling back to def when unset or invalid.
func (b *Bounds) GetTimeout(def time.Duration) time.Duration {
	if b == nil || b.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return def
	}
	return d
}

// Config is sonobatd's server-level configuration file (sonobatd.yaml).
type Config struct {
	// DBPath is the storage file path. The SONOBAT_DB_PATH environment
	// variable, when set, always wins over this field.
	DBPath string `yaml:"db_path,omitempty"`

	// Bounds overrides the Datalog evaluator's default resource bounds.
	Bounds *Bounds `yaml:"bounds,omitempty"`
}

// ResolvedDBPath returns the storage path to use: SONOBAT_DB_PATH if
// set, else cfg.DBPath if non-empty, else defaultDBPath. cfg may be nil.
func (c *Config) ResolvedDBPath() string {
	if v := os.Getenv(dbPathEnvVar); v != "" {
		return v
	}
	if c != nil && c.DBPath != "" {
		return c.DBPath
	}
	return defaultDBPath
}

// Load reads and parses a sonobatd.yaml file from path. If path is a
// directory, it looks for sonobatd.yaml or sonobatd.yml inside it.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "sonobatd.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "sonobatd.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no sonobatd.yaml or sonobatd.yml found in %s", path)
			}
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// LoadFromDir searches for sonobatd.yaml starting at dir and walking up
// to parent directories until found or the filesystem root is reached.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		cfg, err := Load(absDir)
		if err == nil {
			return cfg, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no sonobatd.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}

// LoadFromCurrentDir loads sonobatd.yaml starting from the working directory.
func LoadFromCurrentDir() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFromDir(cwd)
}
