package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"BUDGETOPS_CONFIG", "BUDGETOPS_DB_DRIVER", "BUDGETOPS_DB", "BUDGETOPS_DB_DSN",
		"BUDGETOPS_DB_BUSY_TIMEOUT_MS", "BUDGETOPS_STEP_NOTES_MAX_LENGTH", "BUDGETOPS_TRACKER_TYPE",
		"BUDGETOPS_LOG_USE_CASES", "BUDGETOPS_LOG_LEVEL", "BUDGETOPS_ACTOR",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 750, cfg.Workflow.StepNotesMaxLength)
	assert.Equal(t, domain.TrackerDefault, cfg.Workflow.TrackerType)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budgetops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://localhost/budget
actor: user-1
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/budget", cfg.Database.DSN)
	assert.Equal(t, "user-1", cfg.Actor)
	assert.Equal(t, 750, cfg.Workflow.StepNotesMaxLength)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMs)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "budgetops.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workflow:\n  step_notes_max_length: 500\n"), 0644))

	t.Setenv("BUDGETOPS_CONFIG", path)
	t.Setenv("BUDGETOPS_DB", ":memory:")
	t.Setenv("BUDGETOPS_LOG_USE_CASES", "true")
	t.Setenv("BUDGETOPS_ACTOR", "user-2")
	t.Setenv("BUDGETOPS_DB_BUSY_TIMEOUT_MS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Workflow.StepNotesMaxLength)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.True(t, cfg.Log.UseCases)
	assert.Equal(t, "user-2", cfg.Actor)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMs, "unparseable values are ignored")
}

func TestLoad_InvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("BUDGETOPS_DB_DRIVER", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "database.dsn")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"empty sqlite path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"negative busy timeout", func(c *Config) { c.Database.BusyTimeoutMs = -1 }, "busy_timeout_ms"},
		{"zero notes length", func(c *Config) { c.Workflow.StepNotesMaxLength = 0 }, "step_notes_max_length"},
		{"unknown tracker", func(c *Config) { c.Workflow.TrackerType = "SIMPLIFIED" }, "tracker_type"},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestSaveToFile_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "budgetops.yaml")
	cfg := DefaultConfig()
	cfg.Actor = "user-3"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
