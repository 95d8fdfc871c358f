// Package query composes OQL execution strategies into fallback chains.
//
// An Executor runs one query for a repository method. When an executor cannot run a query shape it
// returns an *UnsupportedQueryExecutionError, and the chain moves on to the next executor. Any
// other error stops the chain:
//
//	exec := query.Chain(
//		query.NewTemplateExecutor(cluster.QueryService()),
//		query.NewRepositoryExecutor[Order](orders),
//	)
//	results, err := exec.Execute(ctx, &query.Method{Name: "FindByStatus", Region: "Orders"},
//		"SELECT * FROM /Orders WHERE status = $1", "open")
//
// Chains are immutable and safe for concurrent use.
package query
