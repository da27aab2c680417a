// Package config loads budgetops settings from defaults, an optional YAML
// file and BUDGETOPS_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexanderramin/budgetops/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Log      LogConfig      `yaml:"log"`
	// Actor is the user id the CLI acts as when --as is not given.
	Actor string `yaml:"actor"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite file, or ":memory:".
	Path string `yaml:"path"`
	// DSN is the Postgres connection string.
	DSN           string `yaml:"dsn"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms"`
}

type WorkflowConfig struct {
	StepNotesMaxLength int                `yaml:"step_notes_max_length"`
	TrackerType        domain.TrackerType `yaml:"tracker_type"`
}

type LogConfig struct {
	// UseCases logs one line per service use case to stderr.
	UseCases bool   `yaml:"use_cases"`
	Level    string `yaml:"level"`
}

// DefaultConfig returns a Config for a local SQLite database under
// ~/.budgetops.
func DefaultConfig() *Config {
	path := "budgetops.db"
	if home, err := os.UserHomeDir(); err == nil {
		path = filepath.Join(home, ".budgetops", "budgetops.db")
	}
	return &Config{
		Database: DatabaseConfig{
			Driver:        DriverSQLite,
			Path:          path,
			BusyTimeoutMs: 5000,
		},
		Workflow: WorkflowConfig{
			StepNotesMaxLength: 750,
			TrackerType:        domain.TrackerDefault,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadFromFile reads a YAML file over the defaults. Keys absent from the
// file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the YAML file named
// by BUDGETOPS_CONFIG when set, then environment overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("BUDGETOPS_CONFIG"); path != "" {
		fromFile, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = fromFile
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BUDGETOPS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("BUDGETOPS_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BUDGETOPS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("BUDGETOPS_DB_BUSY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Database.BusyTimeoutMs = n
		}
	}
	if v := os.Getenv("BUDGETOPS_STEP_NOTES_MAX_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workflow.StepNotesMaxLength = n
		}
	}
	if v := os.Getenv("BUDGETOPS_TRACKER_TYPE"); v != "" {
		cfg.Workflow.TrackerType = domain.TrackerType(v)
	}
	if v := os.Getenv("BUDGETOPS_LOG_USE_CASES"); v != "" {
		cfg.Log.UseCases, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("BUDGETOPS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BUDGETOPS_ACTOR"); v != "" {
		cfg.Actor = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms cannot be negative")
	}
	if c.Workflow.StepNotesMaxLength <= 0 {
		return fmt.Errorf("workflow.step_notes_max_length must be positive")
	}
	if _, err := domain.StepTypesFor(c.Workflow.TrackerType); err != nil {
		return fmt.Errorf("workflow.tracker_type: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
