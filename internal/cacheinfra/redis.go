package cacheinfra

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-datagrid/internal/logging"
)

// RedisClient is the subset of *redis.Client used by the Redis backend.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

var _ RedisClient = (*redis.Client)(nil)

// RedisService stores msgpack-encoded values in Redis.
// Every value it returns is decoded from msgpack into the fetch function's declared type, on a
// miss as well as on a hit. Struct values nested in interface-typed containers such as []any
// therefore always come back as map[string]any.
type RedisService struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewRedisClient builds a go-redis client from cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
}

// NewRedisService validates cfg and wraps client. A nil client is built from cfg.Redis.
func NewRedisService(cfg Config, client RedisClient) (*RedisService, error) {
	cfg.Backend = BackendRedis
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = NewRedisClient(cfg.Redis)
	}
	return &RedisService{
		client: client,
		prefix: cfg.Redis.KeyPrefix,
		ttl:    cfg.TTL,
		logger: logging.Op(),
	}, nil
}

// GetOrFetch returns the cached value for key, calling fetchFn on a miss.
// Concurrent misses for the same key share one fetch. Redis failures fall back to fetchFn.
func (s *RedisService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	fnType, err := validateFetchFn(fetchFn)
	if err != nil {
		return nil, err
	}
	full := s.prefix + key

	raw, err := s.client.Get(ctx, full).Bytes()
	switch {
	case err == nil:
		value, decodeErr := decode(raw, fnType.Out(0))
		if decodeErr == nil {
			return value, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", full, "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("redis read failed", "key", full, "error", err)
	}

	value, err, _ := s.group.Do(full, func() (any, error) {
		result, err := callFetch(ctx, fetchFn)
		if err != nil {
			return nil, err
		}
		payload := s.store(ctx, full, result)
		if payload == nil {
			return result, nil
		}
		// Hand back what the next hit will decode.
		if decoded, err := decode(payload, fnType.Out(0)); err == nil {
			return decoded, nil
		}
		return result, nil
	})
	return value, err
}

// store writes value under key and returns its encoding, or nil when it cannot be encoded.
func (s *RedisService) store(ctx context.Context, key string, value any) []byte {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		s.logger.Warn("value cannot be cached", "key", key, "error", err)
		return nil
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("redis write failed", "key", key, "error", err)
	}
	return payload
}

func decode(raw []byte, typ reflect.Type) (any, error) {
	target := reflect.New(typ)
	if err := msgpack.Unmarshal(raw, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}

// Delete removes key.
func (s *RedisService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// DeleteByPrefix removes every key starting with prefix.
func (s *RedisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// InvalidateKeys removes every key in keys.
func (s *RedisService) InvalidateKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.client.Del(ctx, full...).Err()
}
