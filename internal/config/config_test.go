package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALLCOUNT_DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "calls.json"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(dir, "callcountcli.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "triggers"), cfg.Trigger.SpoolDir)
	assert.Equal(t, time.Second, cfg.Dashboard.TickInterval)
	assert.Equal(t, 80, cfg.Dashboard.DefaultGoal)
	assert.Equal(t, 5*time.Second, cfg.Storage.Redis.DialTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
log_level: debug
data_dir: ` + dir + `
storage:
  driver: sqlite
dashboard:
  tick_interval: 2s
  default_goal: 40
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	t.Setenv("CALLCOUNT_DASHBOARD__DEFAULT_GOAL", "25")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "calls.db"), cfg.Storage.Path)
	assert.Equal(t, 2*time.Second, cfg.Dashboard.TickInterval)
	assert.Equal(t, 25, cfg.Dashboard.DefaultGoal, "environment overrides the file")
}

func TestLoadMissingFileIsOptional(t *testing.T) {
	t.Setenv("CALLCOUNT_DATA_DIR", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.NoError(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CALLCOUNT_DATA_DIR", t.TempDir())

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "CALLCOUNT_STORAGE__DRIVER", "postgres"},
		{"bad log level", "CALLCOUNT_LOG_LEVEL", "loud"},
		{"zero goal", "CALLCOUNT_DASHBOARD__DEFAULT_GOAL", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestValidateRedisNeedsAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Driver = "redis"
	cfg.Storage.Redis.Addr = ""

	assert.Error(t, cfg.Validate())
}

func TestLoadOverridesRunBeforePathsAreDerived(t *testing.T) {
	t.Setenv("CALLCOUNT_DATA_DIR", t.TempDir())
	dir := t.TempDir()

	cfg, err := Load("", func(c *Config) {
		c.DataDir = dir
		c.Storage.Driver = "sqlite"
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "calls.db"), cfg.Storage.Path)
}
