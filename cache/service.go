package cache

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidResultType is returned by GetOrFetch when a backend hands back a value of the wrong type.
var ErrInvalidResultType = goerrors.New("cached value has unexpected type", goerrors.CategoryInternal).
	WithTextCode("INVALID_CACHE_RESULT")

// KeySerializer builds a cache key from a namespace and arbitrary arguments.
// Equal inputs must produce equal keys.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is the read-through cache used for query results.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
}

// KeyInvalidator is implemented by backends that can drop keys in bulk.
type KeyInvalidator interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is the typed form of CacheService.GetOrFetch.
// A nil cached value yields the zero value of T.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		typeErr := goerrors.New(fmt.Sprintf("cache key [%s] holds %T, expected %T", key, result, zero), goerrors.CategoryInternal).
			WithTextCode("INVALID_CACHE_RESULT").
			WithMetadata(map[string]any{"key": key})
		typeErr.Source = ErrInvalidResultType
		return zero, typeErr
	}
	return typed, nil
}
