// Package querycache caches query results in front of a query.Executor.
//
// A CachedExecutor keys each result by the method namespace, the query text and the
// arguments. Every cached key is tagged with its region (see RegionTag) and with any tags
// attached to the context through WithCacheTags:
//
//	cached := querycache.New(query.NewTemplateExecutor(svc), cacheService, nil)
//	exec := query.Chain(cached, query.NewRepositoryExecutor[Order](repo))
//
//	ctx = querycache.WithCacheTags(ctx, "tenant:acme")
//	rows, err := exec.Execute(ctx, method, "SELECT * FROM /Orders WHERE status = $1", "open")
//
//	// after writing to /Orders
//	_ = cached.InvalidateRegion(ctx, "Orders")
//
// Errors, including unsupported-query errors, are never cached, so a cached executor can sit
// at the head of a fallback chain. Queries run with a transaction in the context
// (query.WithTx) bypass the cache.
package querycache
