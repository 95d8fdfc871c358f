package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-datagrid/cache"
	"github.com/goliatone/go-datagrid/execution"
	"github.com/goliatone/go-datagrid/internal/localgrid"
)

// EnvPrefix prefixes every environment override read by LoadFromEnv.
const EnvPrefix = "DATAGRID_"

// Config is the complete configuration of a datagrid process.
type Config struct {
	Cache     cache.Config             `yaml:"cache"`
	Execution execution.TemplateConfig `yaml:"execution"`
	Grid      localgrid.Config         `yaml:"grid"`
	Log       LogConfig                `yaml:"log"`
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns an in-memory cache, a single-member grid and info logging.
func DefaultConfig() *Config {
	return &Config{
		Cache: cache.DefaultConfig(),
		Execution: execution.TemplateConfig{
			DefaultTimeout: 30 * time.Second,
		},
		Grid: localgrid.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile reads a YAML file on top of DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryNotFound, "read config file").
			WithMetadata(map[string]any{"path": path})
	}
	return Parse(data)
}

// Parse decodes YAML on top of DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "decode config").
			WithTextCode("INVALID_CONFIG_YAML")
	}
	return cfg, nil
}

// LoadFromEnv applies DATAGRID_* overrides to cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(EnvPrefix + "CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = cache.Backend(strings.ToLower(v))
	}
	if v := os.Getenv(EnvPrefix + "CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv(EnvPrefix + "REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv(EnvPrefix + "REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Redis.DB = n
		}
	}
	if v := os.Getenv(EnvPrefix + "EXECUTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Execution.DefaultTimeout = d
		}
	}
	if v := os.Getenv(EnvPrefix + "GRID_NAME"); v != "" {
		cfg.Grid.Name = v
	}
	if v := os.Getenv(EnvPrefix + "READ_SERIALIZED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Grid.Portable.ReadSerialized = b
		}
	}
}

// Load reads path when it is not empty, then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Log.Format, validation.In("text", "json")),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid log configuration")
	}

	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Execution.Validate(); err != nil {
		return err
	}
	return c.Grid.Validate()
}
