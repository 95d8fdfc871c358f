package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-datagrid/grid"
)

// Target resolves where an execution lands. Targets are immutable and safe to share.
type Target interface {
	Resolve(ctx context.Context) (grid.Execution, error)
	// Kind is a short, low-cardinality label for the topology shape.
	Kind() string
	String() string
}

// validator is implemented by targets that can check their wiring before the first resolve.
type validator interface {
	validate() error
}

// validateTarget runs the static checks of t, if it has any.
func validateTarget(t Target) error {
	if v, ok := t.(validator); ok {
		return v.validate()
	}
	return nil
}

type serverTarget struct {
	svc    grid.FunctionService
	pool   grid.Pool
	source grid.PoolSource
	all    bool
}

// OnServer targets a single server of pool.
func OnServer(svc grid.FunctionService, pool grid.Pool) Target {
	return serverTarget{svc: svc, pool: pool}
}

// OnServerFromCache targets a single server of the default pool of source.
// The pool is looked up on every resolve.
func OnServerFromCache(svc grid.FunctionService, source grid.PoolSource) Target {
	return serverTarget{svc: svc, source: source}
}

// OnServers targets every server of pool.
func OnServers(svc grid.FunctionService, pool grid.Pool) Target {
	return serverTarget{svc: svc, pool: pool, all: true}
}

// OnServersFromCache targets every server of the default pool of source.
func OnServersFromCache(svc grid.FunctionService, source grid.PoolSource) Target {
	return serverTarget{svc: svc, source: source, all: true}
}

func (t serverTarget) validate() error {
	if t.svc == nil {
		return newConfigError("function service is required", map[string]any{"target": t.Kind()})
	}
	if t.pool == nil && t.source == nil {
		return newConfigError("a pool or a pool source is required", map[string]any{"target": t.Kind()})
	}
	return nil
}

func (t serverTarget) Resolve(ctx context.Context) (grid.Execution, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	pool := t.pool
	if pool == nil {
		var err error
		if pool, err = t.source.DefaultPool(); err != nil {
			return nil, err
		}
		if pool == nil {
			return nil, newConfigError("no default pool is configured", map[string]any{"target": t.Kind()})
		}
	}

	if t.all {
		return t.svc.OnServers(pool)
	}
	return t.svc.OnServer(pool)
}

func (t serverTarget) Kind() string {
	if t.all {
		return "servers"
	}
	return "server"
}

func (t serverTarget) String() string {
	switch {
	case t.pool != nil:
		return fmt.Sprintf("%s(pool=%s)", t.Kind(), t.pool.Name())
	default:
		return fmt.Sprintf("%s(default pool)", t.Kind())
	}
}

type regionTarget struct {
	svc    grid.FunctionService
	region grid.Region
}

// OnRegion targets the members hosting region.
func OnRegion(svc grid.FunctionService, region grid.Region) Target {
	return regionTarget{svc: svc, region: region}
}

func (t regionTarget) validate() error {
	if t.svc == nil || t.region == nil {
		return newConfigError("function service and region are required", map[string]any{"target": t.Kind()})
	}
	return nil
}

func (t regionTarget) Resolve(ctx context.Context) (grid.Execution, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t.svc.OnRegion(t.region)
}

func (t regionTarget) Kind() string { return "region" }

func (t regionTarget) String() string {
	if t.region == nil {
		return "region(<nil>)"
	}
	return "region(" + t.region.Name() + ")"
}

type membersTarget struct {
	svc     grid.FunctionService
	members []grid.MemberID
	groups  []string
}

// OnMembers targets the given members. When members is empty it targets every member of groups,
// and when both are empty it targets every member of the distributed system.
func OnMembers(svc grid.FunctionService, members []grid.MemberID, groups []string) Target {
	return membersTarget{
		svc:     svc,
		members: append([]grid.MemberID(nil), members...),
		groups:  append([]string(nil), groups...),
	}
}

// OnAllMembers targets every member of the distributed system.
func OnAllMembers(svc grid.FunctionService) Target {
	return membersTarget{svc: svc}
}

func (t membersTarget) validate() error {
	if t.svc == nil {
		return newConfigError("function service is required", map[string]any{"target": t.Kind()})
	}
	return nil
}

func (t membersTarget) Resolve(ctx context.Context) (grid.Execution, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	switch {
	case len(t.members) > 0:
		return t.svc.OnMembers(t.members...)
	case len(t.groups) > 0:
		return t.svc.OnGroups(t.groups...)
	default:
		return t.svc.OnAllMembers()
	}
}

func (t membersTarget) Kind() string {
	switch {
	case len(t.members) > 0:
		return "members"
	case len(t.groups) > 0:
		return "groups"
	default:
		return "all_members"
	}
}

func (t membersTarget) String() string {
	switch {
	case len(t.members) > 0:
		ids := make([]string, len(t.members))
		for i, m := range t.members {
			ids[i] = string(m)
		}
		return "members(" + strings.Join(ids, ",") + ")"
	case len(t.groups) > 0:
		return "groups(" + strings.Join(t.groups, ",") + ")"
	default:
		return "all_members"
	}
}
