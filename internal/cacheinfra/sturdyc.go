package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// SturdycService is the in-memory cache backend.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and creates the sturdyc client.
// This adapter targets the sturdyc v1 option set.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	cfg.Backend = BackendMemory
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)
	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key, calling fetchFn on a miss.
// fetchFn must be a func(context.Context) (T, error).
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if _, err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}
	return s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetch(ctx, fetchFn)
	})
}

// Delete removes key.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (s *SturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys removes every key in keys.
func (s *SturdycService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}
