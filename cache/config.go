package cache

import (
	"time"

	"github.com/goliatone/go-datagrid/internal/cacheinfra"
)

// Backend names the store behind a CacheService.
type Backend = cacheinfra.Backend

const (
	BackendMemory = cacheinfra.BackendMemory
	BackendRedis  = cacheinfra.BackendRedis
)

// RedisClient is the subset of the go-redis client the Redis backend needs.
type RedisClient = cacheinfra.RedisClient

// Config exposes cache configuration for consumers of the cache package.
type Config struct {
	Backend              Backend             `yaml:"backend"`
	Capacity             int                 `yaml:"capacity"`
	NumShards            int                 `yaml:"num_shards"`
	TTL                  time.Duration       `yaml:"ttl"`
	EvictionPercentage   int                 `yaml:"eviction_percentage"`
	EarlyRefresh         *EarlyRefreshConfig `yaml:"early_refresh"`
	MissingRecordStorage bool                `yaml:"missing_record_storage"`
	EvictionInterval     time.Duration       `yaml:"eviction_interval"`
	Redis                RedisConfig         `yaml:"redis"`
}

// EarlyRefreshConfig mirrors the sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `yaml:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `yaml:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `yaml:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `yaml:"retry_base_delay"`
}

// RedisConfig configures the shared Redis backend.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	KeyPrefix   string        `yaml:"key_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// DefaultConfig returns an in-memory Config with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks the settings of the selected backend.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewCacheService builds the backend selected by cfg.Backend.
func NewCacheService(cfg Config) (CacheService, error) {
	if cfg.Backend == BackendRedis {
		return NewCacheServiceWithRedis(cfg, nil)
	}
	svc, err := cacheinfra.NewSturdycService(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// NewCacheServiceWithRedis builds the Redis backend around client.
// A nil client is created from cfg.Redis.
func NewCacheServiceWithRedis(cfg Config, client RedisClient) (CacheService, error) {
	svc, err := cacheinfra.NewRedisService(cfg.toInternal(), client)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Backend:              c.Backend,
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
		Redis:                cacheinfra.RedisConfig(c.Redis),
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Backend:              cfg.Backend,
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
		Redis:                RedisConfig(cfg.Redis),
	}
}
