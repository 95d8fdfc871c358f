// Package function turns plain Go funcs into grid functions.
//
// A server-side function is an ordinary Go func. Its parameters are filled from two places. The
// caller's arguments fill them in order. The grid itself fills parameters of these types:
//
//   - grid.FunctionContext (or grid.RegionFunctionContext): the raw invocation context
//   - grid.ResultSender: the sender, for functions that stream their own results
//   - grid.RegionData or any grid.Region: the region data set, restricted to the local
//     partition when the region is partitioned
//   - grid.KeySet: the key filter of a region execution
//
// The positions are computed once, when the function is wrapped:
//
//	adapter, err := function.NewAdapter("totalByStatus",
//		func(data grid.RegionData, status string) (int, error) {
//			...
//		},
//		function.WithPortableSupport(cluster),
//	)
//
// Resolution runs in three layers. DefaultArgumentResolver extracts the payload.
// PortableArgumentResolver replaces portable values with live objects when the declared
// parameter type matches. ContextInjectingArgumentResolver places the grid-provided values at
// their declared positions.
package function
