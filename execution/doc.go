// Package execution dispatches grid functions and collects their results.
//
// A Target decides where a call lands: one server of a pool, every server of a pool, the members
// hosting a region, an explicit member set, member groups, or every member. A Template binds a
// Target with default settings and builds a fresh FunctionExecution per call:
//
//	tmpl, err := execution.NewTemplate(
//		execution.OnMembers(svc, nil, []string{"analytics"}),
//		execution.WithTimeout(2*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//	total, err := execution.Extract[int](tmpl.ExecuteAndExtractByID(ctx, "count", "Orders"))
//
// A FunctionExecution can only run once. Running it again returns ErrExecutionConsumed.
// When its timeout elapses the call fails with a retryable error that IsTimeout detects. The
// remote side is not interrupted. Any other failure reported by the grid is returned unchanged.
package execution
