package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Backend selects the store behind the query-result cache.
type Backend string

const (
	// BackendMemory keeps results in a process-local sturdyc client.
	BackendMemory Backend = "memory"
	// BackendRedis shares results between processes through Redis.
	BackendRedis Backend = "redis"
)

// Config holds the settings of both cache backends.
type Config struct {
	Backend Backend

	// Capacity is the maximum number of in-memory entries. Must be greater than 0.
	Capacity int
	// NumShards splits the in-memory cache for concurrent access. Must be greater than 0.
	NumShards int
	// TTL applies to both backends. Must be greater than 0.
	TTL time.Duration
	// EvictionPercentage is the share of entries dropped when the in-memory cache is full (1-100).
	EvictionPercentage int

	// EarlyRefresh refreshes hot in-memory entries before they expire. Nil disables it.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers keys whose fetch reported no record.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired entries are swept. Zero keeps the sturdyc default.
	EvictionInterval time.Duration

	Redis RedisConfig
}

// EarlyRefreshConfig configures sturdyc early refreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendMemory,
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			KeyPrefix:   "datagrid:",
			DialTimeout: 5 * time.Second,
		},
	}
}

// ToSturdycOptions maps the optional settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks the settings of the selected backend.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	switch c.backend() {
	case BackendMemory:
		return c.validateMemory()
	case BackendRedis:
		if c.Redis.Addr == "" {
			return &ConfigError{Field: "Redis.Addr", Message: "is required for the redis backend"}
		}
		if c.Redis.DB < 0 {
			return &ConfigError{Field: "Redis.DB", Message: "must be non-negative"}
		}
		return nil
	default:
		return &ConfigError{Field: "Backend", Message: "must be memory or redis"}
	}
}

func (c Config) backend() Backend {
	if c.Backend == "" {
		return BackendMemory
	}
	return c.Backend
}

func (c Config) validateMemory() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if er := c.EarlyRefresh; er != nil {
		for _, d := range []struct {
			field string
			value time.Duration
		}{
			{"EarlyRefresh.MinAsyncRefreshTime", er.MinAsyncRefreshTime},
			{"EarlyRefresh.MaxAsyncRefreshTime", er.MaxAsyncRefreshTime},
			{"EarlyRefresh.SyncRefreshTime", er.SyncRefreshTime},
			{"EarlyRefresh.RetryBaseDelay", er.RetryBaseDelay},
		} {
			if d.value < 0 {
				return &ConfigError{Field: d.field, Message: "must be non-negative"}
			}
		}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
