// Package localgrid is an in-process implementation of the grid contracts.
//
// A Cluster holds members, pools, regions and registered functions. Executions fan out one
// goroutine per selected member and feed the request's ResultCollector. Partitioned regions
// assign keys to server members through a PartitionResolver, and region executions with a
// filter only run on the owners of the filtered keys.
//
// The QueryService supports SELECT * FROM /Region with an optional single equality WHERE clause
// and LIMIT. Anything else returns grid.ErrUnsupportedQuery so that callers can fall back.
package localgrid
