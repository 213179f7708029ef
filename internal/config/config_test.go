package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/stg"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boolnet.yaml")
	data := []byte("update: mixed\nwalk:\n  attempts: 3\nanalysis:\n  faithfulness: false\n  parallelism: 4\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	u, err := cfg.UpdateMode()
	require.NoError(t, err)
	assert.Equal(t, stg.Mixed, u)
	assert.Equal(t, 3, cfg.Walk.Attempts)
	assert.False(t, cfg.Analysis.Faithfulness)
	assert.True(t, cfg.Analysis.Univocality)
	assert.Equal(t, 4, cfg.Analysis.Parallelism)
	assert.Equal(t, "symbolic", cfg.Checker)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "boolnet.yaml")
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Cache = CacheConfig{Enabled: true, InMemory: true}
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOLNET_UPDATE", "sync")
	t.Setenv("BOOLNET_SEED", "7")
	t.Setenv("BOOLNET_LOG_LEVEL", "debug")
	t.Setenv("BOOLNET_CACHE_PATH", "/tmp/verdicts")

	cfg, err := Load("")
	require.NoError(t, err)
	u, err := cfg.UpdateMode()
	require.NoError(t, err)
	assert.Equal(t, stg.Synchronous, u)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "/tmp/verdicts", cfg.Cache.Path)

	t.Setenv("BOOLNET_SEED", "seven")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"update":      func(c *Config) { c.Update = "parallel" },
		"checker":     func(c *Config) { c.Checker = "nusmv" },
		"attempts":    func(c *Config) { c.Walk.Attempts = 0 },
		"length":      func(c *Config) { c.Walk.Length = -1 },
		"parallelism": func(c *Config) { c.Analysis.Parallelism = 0 },
		"cache":       func(c *Config) { c.Cache.Enabled = true },
		"level":       func(c *Config) { c.Logging.Level = "trace" },
		"traces":      func(c *Config) { c.Telemetry.Traces = "jaeger" },
		"metrics":     func(c *Config) { c.Telemetry.Metrics = "otlp" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", name)
			}
		})
	}
}
