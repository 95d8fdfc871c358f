package querycache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-datagrid/cache"
	"github.com/goliatone/go-datagrid/internal/logging"
	"github.com/goliatone/go-datagrid/query"
)

var _ query.Executor = (*CachedExecutor)(nil)

// CachedExecutor decorates a query.Executor with a read-through result cache.
type CachedExecutor struct {
	base   query.Executor
	cache  cache.CacheService
	keys   cache.KeySerializer
	logger *slog.Logger

	// tracked maps each live cache key to its invalidation tags.
	tracked *xsync.MapOf[string, []string]
}

// Option configures a CachedExecutor.
type Option func(*CachedExecutor)

// WithLogger sets the logger used for invalidation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedExecutor) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps base. A nil serializer falls back to cache.NewDefaultKeySerializer.
// Result rows come back in the shape svc stores them. With the Redis backend, struct rows are
// returned as map[string]any on every call, including the first one.
func New(base query.Executor, svc cache.CacheService, keys cache.KeySerializer, opts ...Option) *CachedExecutor {
	if keys == nil {
		keys = cache.NewDefaultKeySerializer()
	}
	c := &CachedExecutor{
		base:    base,
		cache:   svc,
		keys:    keys,
		logger:  logging.Op(),
		tracked: xsync.NewMapOf[string, []string](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute returns the cached results for the method, query and args, running base on a miss.
// Errors are never cached. Queries inside a transaction bypass the cache.
func (c *CachedExecutor) Execute(ctx context.Context, method *query.Method, q string, args ...any) ([]any, error) {
	if _, inTx := query.TxFromContext(ctx); inTx {
		return c.base.Execute(ctx, method, q, args...)
	}

	key := c.Key(method, q, args...)
	results, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]any, error) {
		return c.base.Execute(ctx, method, q, args...)
	})
	if err != nil {
		return nil, err
	}

	c.track(key, tagsFor(ctx, method))
	return results, nil
}

// Key returns the cache key used for a query.
func (c *CachedExecutor) Key(method *query.Method, q string, args ...any) string {
	parts := make([]any, 0, len(args)+1)
	parts = append(parts, q)
	parts = append(parts, args...)
	return c.keys.SerializeKey(method.Namespace(), parts...)
}

// ExecutorName implements query.Named.
func (c *CachedExecutor) ExecutorName() string {
	if n, ok := c.base.(query.Named); ok {
		return "cached(" + n.ExecutorName() + ")"
	}
	return "cached"
}

// Invalidate drops every cached result carrying at least one of tags.
func (c *CachedExecutor) Invalidate(ctx context.Context, tags ...string) error {
	want := make(map[string]struct{}, len(tags))
	for _, t := range dedupeStrings(tags) {
		want[t] = struct{}{}
	}
	if len(want) == 0 {
		return nil
	}

	return c.drop(ctx, func(keyTags []string) bool {
		for _, t := range keyTags {
			if _, ok := want[t]; ok {
				return true
			}
		}
		return false
	})
}

// InvalidateRegion drops every cached result of queries against region.
func (c *CachedExecutor) InvalidateRegion(ctx context.Context, region string) error {
	tag := RegionTag(region)
	if tag == "" {
		return nil
	}
	return c.Invalidate(ctx, tag)
}

// InvalidateAll drops every result this executor cached.
func (c *CachedExecutor) InvalidateAll(ctx context.Context) error {
	return c.drop(ctx, func([]string) bool { return true })
}

// TrackedKeys returns the number of cached results currently tracked.
func (c *CachedExecutor) TrackedKeys() int {
	return c.tracked.Size()
}

func (c *CachedExecutor) track(key string, tags []string) {
	c.tracked.Compute(key, func(old []string, loaded bool) ([]string, bool) {
		if !loaded {
			return tags, false
		}
		return dedupeStrings(append(append([]string(nil), old...), tags...)), false
	})
}

func (c *CachedExecutor) drop(ctx context.Context, match func(tags []string) bool) error {
	var keys []string
	c.tracked.Range(func(key string, tags []string) bool {
		if match(tags) {
			keys = append(keys, key)
		}
		return true
	})
	if len(keys) == 0 {
		return nil
	}

	for _, key := range keys {
		c.tracked.Delete(key)
	}

	if bulk, ok := c.cache.(cache.KeyInvalidator); ok {
		if err := bulk.InvalidateKeys(ctx, keys); err != nil {
			c.logger.Warn("query cache invalidation failed", "keys", len(keys), "error", err)
			return err
		}
		return nil
	}

	var errs []error
	for _, key := range keys {
		if err := c.cache.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Warn("query cache invalidation failed", "keys", len(keys), "error", err)
		return err
	}
	return nil
}

func tagsFor(ctx context.Context, method *query.Method) []string {
	tags := cacheTagsFromContext(ctx)
	if method != nil {
		if tag := RegionTag(method.Region); tag != "" {
			tags = append(tags, tag)
		}
	}
	return dedupeStrings(tags)
}
