package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TALLYVM_LOGGING_LEVEL.
const EnvPrefix = "TALLYVM"

// Config represents the tallyvm configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Executor ExecutorConfig `mapstructure:"executor"`
	HostFunc HostFuncConfig `mapstructure:"hostfunc"`
}

// LoggingConfig holds logging configuration. An empty Dir logs to stderr.
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// ExecutorConfig holds execution limits
type ExecutorConfig struct {
	MaxLiveUnits     int    `mapstructure:"max_live_units"`
	OutputLimitBytes int    `mapstructure:"output_limit_bytes"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
	DiskCache        bool   `mapstructure:"disk_cache"`
	CacheDir         string `mapstructure:"cache_dir"`
}

// HostFuncConfig holds host function configuration
type HostFuncConfig struct {
	AllowedHosts []string      `mapstructure:"allowed_hosts"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	HTTPMaxBody  int64         `mapstructure:"http_max_body"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "")

	v.SetDefault("executor.max_live_units", 64)
	v.SetDefault("executor.output_limit_bytes", 1<<20)
	v.SetDefault("executor.memory_limit_pages", 0)
	v.SetDefault("executor.disk_cache", false)
	v.SetDefault("executor.cache_dir", "")

	v.SetDefault("hostfunc.allowed_hosts", []string{})
	v.SetDefault("hostfunc.http_timeout", 30*time.Second)
	v.SetDefault("hostfunc.http_max_body", 1<<20)
}

// Load reads the configuration from path, or from tallyvm.yaml in the
// working directory or ./config when path is empty. A missing default
// file is not an error; environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tallyvm")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if c.Executor.MaxLiveUnits <= 0 {
		return fmt.Errorf("executor.max_live_units must be positive, got: %d", c.Executor.MaxLiveUnits)
	}

	if c.Executor.OutputLimitBytes <= 0 {
		return fmt.Errorf("executor.output_limit_bytes must be positive, got: %d", c.Executor.OutputLimitBytes)
	}

	if c.Executor.MemoryLimitPages > 65536 {
		return fmt.Errorf("executor.memory_limit_pages must be at most 65536, got: %d", c.Executor.MemoryLimitPages)
	}

	if c.HostFunc.HTTPTimeout <= 0 {
		return fmt.Errorf("hostfunc.http_timeout must be positive, got: %s", c.HostFunc.HTTPTimeout)
	}

	if c.HostFunc.HTTPMaxBody <= 0 {
		return fmt.Errorf("hostfunc.http_max_body must be positive, got: %d", c.HostFunc.HTTPMaxBody)
	}

	return nil
}
