package grid

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// MemberID identifies a member of the distributed system.
type MemberID string

// Member describes a node of the distributed system.
type Member struct {
	ID     MemberID
	Name   string
	Groups []string
	Server bool
}

// InGroup reports whether the member belongs to group.
func (m Member) InGroup(group string) bool {
	for _, g := range m.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Pool is a named set of server connections.
type Pool interface {
	Name() string
	Servers() []MemberID
}

// PoolSource gives access to the default pool of a client cache.
type PoolSource interface {
	DefaultPool() (Pool, error)
}

// Region is a distributed key/value collection.
type Region interface {
	Name() string
	Get(key any) (any, bool)
	Put(key, value any)
	Remove(key any)
	Keys() []any
	Entries() map[any]any
	Size() int
}

// PartitionedRegion is a Region whose entries are spread across hosting members.
type PartitionedRegion interface {
	Region
	// LocalData returns the entries whose primary copy is held by member.
	LocalData(member MemberID) Region
}

// KeySet is the key filter passed to region executions.
type KeySet map[any]struct{}

// NewKeySet builds a KeySet from keys.
func NewKeySet(keys ...any) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Contains reports whether key is part of the set.
func (s KeySet) Contains(key any) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the keys sorted by their string form.
func (s KeySet) Keys() []any {
	keys := make([]any, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// RegionData is the parameter type used to receive a region's entries as a map.
type RegionData map[any]any

// Function is a named remote operation.
type Function interface {
	ID() string
	HasResult() bool
	Execute(fc FunctionContext) error
}

// FunctionContext is handed to a Function on every member it runs on.
type FunctionContext interface {
	FunctionID() string
	// Arguments returns the raw argument payload: a []any, a single value, or nil.
	Arguments() any
	ResultSender() ResultSender
	MemberID() MemberID
}

// RegionFunctionContext is the FunctionContext of a region execution.
type RegionFunctionContext interface {
	FunctionContext
	DataSet() Region
	Filter() KeySet
}

// ResultSender sends results from a Function back to the caller.
type ResultSender interface {
	SendResult(result any) error
	LastResult(result any) error
	SendError(err error) error
}

// Request is a single dispatch. Exactly one of FunctionID or Function is set.
type Request struct {
	FunctionID string
	Function   Function
	Args       []any
	Filter     KeySet
	Collector  ResultCollector
}

// Name returns the identifier of the requested function.
func (r Request) Name() string {
	if r.Function != nil {
		return r.Function.ID()
	}
	return r.FunctionID
}

// Execution is a dispatch handle resolved against a target.
// Dispatch returns once the request has been handed off; results arrive through the collector.
type Execution interface {
	Dispatch(ctx context.Context, req Request) error
}

// FunctionService resolves Execution handles for each topology shape.
type FunctionService interface {
	OnServer(pool Pool) (Execution, error)
	OnServers(pool Pool) (Execution, error)
	OnRegion(region Region) (Execution, error)
	OnMembers(members ...MemberID) (Execution, error)
	OnGroups(groups ...string) (Execution, error)
	OnAllMembers() (Execution, error)
}

// QueryService runs OQL queries.
type QueryService interface {
	Execute(ctx context.Context, query string, args ...any) ([]any, error)
}

// MemberIDs converts strings to member identifiers.
func MemberIDs(ids ...string) []MemberID {
	out := make([]MemberID, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, MemberID(id))
	}
	return out
}
