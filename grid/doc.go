// Package grid defines the contracts this module consumes from a distributed in-memory data grid.
//
// # Overview
//
// The data grid itself (network transport, member discovery, partition routing, the portable
// object format and region storage) lives outside of this module. The types in this package are the
// narrow surface the execution, function and query packages need from it:
//
//   - Topology: Member, Pool, PoolSource, Region, PartitionedRegion
//   - Dispatch: FunctionService resolves an Execution handle; Execution.Dispatch sends a Request
//   - Remote side: Function, FunctionContext, RegionFunctionContext, ResultSender
//   - Results: ResultCollector and the blocking DefaultResultCollector
//   - Portable values: PortableValue, PortableDeserializer, PortableSupport
//   - Queries: QueryService and ErrUnsupportedQuery
//
// # Result Collection
//
// A dispatch pushes partial results into a ResultCollector as each member produces them, and
// signals completion with EndResults. Results blocks until completion or until the context is done:
//
//	collector := grid.NewDefaultResultCollector()
//	if err := execution.Dispatch(ctx, grid.Request{FunctionID: "count", Collector: collector}); err != nil {
//		return err
//	}
//	results, err := collector.Results(ctx)
//
// No ordering is guaranteed between members; results are kept in arrival order.
//
// # Partition Locality
//
// IsPartitioned and LocalDataForContext resolve the subset of a partitioned region that is held by
// the member running a function. Replicated regions are returned as-is.
//
// # Portable Values
//
// A PortableValue is a serialized stand-in for a domain object. Whether it can be turned back into
// a concrete Go value is answered by the PortableSupport capability, which is passed explicitly to
// the components that need it instead of being looked up from global state.
package grid
