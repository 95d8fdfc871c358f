// Package cache provides the read-through cache used for grid query results.
//
// # Overview
//
// The package exports two interfaces and their default implementations:
//
//   - CacheService: a read-through cache keyed by strings
//   - KeySerializer: builds stable keys from a namespace and arguments
//
// NewCacheService picks the backend from Config.Backend. The memory backend is a
// process-local sturdyc client. The redis backend stores msgpack payloads in Redis
// so that several processes share query results.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	serializer := cache.NewDefaultKeySerializer(cache.WithKeyPrefix("orders-grid"))
//	key := serializer.SerializeKey("Orders", "SELECT * FROM /Orders WHERE status = $1", "open")
//
//	rows, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) ([]any, error) {
//		return executor.Execute(ctx, method, query, "open")
//	})
//
// # Key Serialization
//
// The default serializer walks arguments with reflection:
//
//   - Basic types use their string form
//   - Slices and arrays are encoded element by element
//   - Maps and grid.KeySet values are written in sorted order
//   - Structs contribute their exported fields
//   - grid.PortableValue arguments are tagged with their portable type name
//   - encoding.TextMarshaler values, such as time.Time, use their text form
//   - Functions and channels use their pointer, which is only stable within one process
//
// # Backends
//
// Backends that can drop keys in bulk implement KeyInvalidator. Both built-in backends do.
// The redis backend decodes hits into the fetch function's declared result type, so struct
// values held inside []any results come back as maps. Prefer concrete result types when
// sharing a cache between processes.
package cache
