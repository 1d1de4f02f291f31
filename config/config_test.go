package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
		Executor: ExecutorConfig{
			MaxLiveUnits:     64,
			OutputLimitBytes: 1 << 20,
		},
		HostFunc: HostFuncConfig{
			HTTPTimeout: 30 * time.Second,
			HTTPMaxBody: 1 << 20,
		},
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tallyvm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		require.NoError(t, validConfig().validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"InvalidLoggingMode", func(c *Config) { c.Logging.Mode = "verbose" }, "invalid logging.mode"},
		{"ZeroLiveUnits", func(c *Config) { c.Executor.MaxLiveUnits = 0 }, "executor.max_live_units must be positive"},
		{"NegativeOutputLimit", func(c *Config) { c.Executor.OutputLimitBytes = -1 }, "executor.output_limit_bytes must be positive"},
		{"TooManyPages", func(c *Config) { c.Executor.MemoryLimitPages = 70000 }, "executor.memory_limit_pages"},
		{"ZeroHTTPTimeout", func(c *Config) { c.HostFunc.HTTPTimeout = 0 }, "hostfunc.http_timeout must be positive"},
		{"ZeroHTTPMaxBody", func(c *Config) { c.HostFunc.HTTPMaxBody = 0 }, "hostfunc.http_max_body must be positive"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Logging.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.Dir)
	assert.Equal(t, 64, cfg.Executor.MaxLiveUnits)
	assert.Equal(t, 1<<20, cfg.Executor.OutputLimitBytes)
	assert.False(t, cfg.Executor.DiskCache)
	assert.Equal(t, 30*time.Second, cfg.HostFunc.HTTPTimeout)
	assert.Empty(t, cfg.HostFunc.AllowedHosts)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  mode: development
  level: debug
executor:
  max_live_units: 8
  memory_limit_pages: 256
hostfunc:
  allowed_hosts:
    - api.example.com
  http_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Logging.Mode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Executor.MaxLiveUnits)
	assert.Equal(t, uint32(256), cfg.Executor.MemoryLimitPages)
	assert.Equal(t, []string{"api.example.com"}, cfg.HostFunc.AllowedHosts)
	assert.Equal(t, 5*time.Second, cfg.HostFunc.HTTPTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, 1<<20, cfg.Executor.OutputLimitBytes)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "executor:\n  max_live_units: 8\n")
	t.Setenv("TALLYVM_EXECUTOR_MAX_LIVE_UNITS", "3")
	t.Setenv("TALLYVM_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Executor.MaxLiveUnits)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("InvalidValue", func(t *testing.T) {
		path := writeConfig(t, "logging:\n  mode: loud\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation error")
	})
}
