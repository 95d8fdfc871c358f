package localgrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-datagrid/grid"
)

// OnServer targets one server of pool, chosen round-robin per dispatch.
func (c *Cluster) OnServer(pool grid.Pool) (grid.Execution, error) {
	if pool == nil {
		return nil, noMembers("server(nil pool)")
	}
	target := "server(" + pool.Name() + ")"
	return &memberExecution{cluster: c, target: target, members: func(grid.Request) ([]grid.MemberID, error) {
		if p, ok := pool.(*Pool); ok {
			if id, ok := p.pick(); ok {
				return []grid.MemberID{id}, nil
			}
			return nil, noMembers(target)
		}
		servers := pool.Servers()
		if len(servers) == 0 {
			return nil, noMembers(target)
		}
		return servers[:1], nil
	}}, nil
}

// OnServers targets every server of pool.
func (c *Cluster) OnServers(pool grid.Pool) (grid.Execution, error) {
	if pool == nil {
		return nil, noMembers("servers(nil pool)")
	}
	target := "servers(" + pool.Name() + ")"
	return c.fixed(target, pool.Servers()), nil
}

// OnRegion targets the members hosting region. Partitioned regions run on every host, or only
// on the owners of the filter keys when a filter is set. Replicated regions run on one server.
func (c *Cluster) OnRegion(region grid.Region) (grid.Execution, error) {
	if region == nil {
		return nil, detailed(ErrRegionNotFound, "region is required", nil)
	}
	target := "region(" + region.Name() + ")"
	return &memberExecution{cluster: c, target: target, region: region, members: func(req grid.Request) ([]grid.MemberID, error) {
		var ids []grid.MemberID
		if pr, ok := region.(*PartitionedRegion); ok {
			if len(req.Filter) > 0 {
				ids = pr.Owners(req.Filter)
			} else {
				ids = pr.Hosts()
			}
		} else if servers := c.Servers(); len(servers) > 0 {
			ids = servers[:1]
		}
		if len(ids) == 0 {
			return nil, noMembers(target)
		}
		return ids, nil
	}}, nil
}

// OnMembers targets the given members. Unknown IDs are an error.
func (c *Cluster) OnMembers(members ...grid.MemberID) (grid.Execution, error) {
	for _, id := range members {
		if _, ok := c.members.Load(id); !ok {
			return nil, detailed(ErrMemberNotFound, fmt.Sprintf("member [%s] not found", id), map[string]any{"member": string(id)})
		}
	}
	return c.fixed("members("+joinIDs(members)+")", members), nil
}

// OnGroups targets every member belonging to at least one of groups.
func (c *Cluster) OnGroups(groups ...string) (grid.Execution, error) {
	var ids []grid.MemberID
	for _, m := range c.Members() {
		for _, g := range groups {
			if m.InGroup(g) {
				ids = append(ids, m.ID)
				break
			}
		}
	}
	return c.fixed("groups("+strings.Join(groups, ",")+")", ids), nil
}

// OnAllMembers targets every member.
func (c *Cluster) OnAllMembers() (grid.Execution, error) {
	var ids []grid.MemberID
	for _, m := range c.Members() {
		ids = append(ids, m.ID)
	}
	return c.fixed("all_members", ids), nil
}

func (c *Cluster) fixed(target string, ids []grid.MemberID) *memberExecution {
	ids = append([]grid.MemberID(nil), ids...)
	return &memberExecution{cluster: c, target: target, members: func(grid.Request) ([]grid.MemberID, error) {
		if len(ids) == 0 {
			return nil, noMembers(target)
		}
		return ids, nil
	}}
}

// memberExecution runs a request on the members selected at dispatch time.
type memberExecution struct {
	cluster *Cluster
	target  string
	region  grid.Region
	members func(grid.Request) ([]grid.MemberID, error)
}

// Dispatch validates the request and starts one goroutine per member. The collector is ended
// once every member has finished.
func (e *memberExecution) Dispatch(ctx context.Context, req grid.Request) error {
	if req.Collector == nil {
		return errors.New("request has no result collector", errors.CategoryValidation).WithTextCode("INVALID_REQUEST")
	}

	fn := req.Function
	if fn == nil {
		var err error
		if fn, err = e.cluster.Function(req.FunctionID); err != nil {
			return err
		}
	}

	ids, err := e.members(req)
	if err != nil {
		return err
	}

	args, err := e.cluster.portable.encodeArgs(req.Args)
	if err != nil {
		return err
	}

	e.cluster.logger.Debug("dispatching function",
		"function", fn.ID(), "target", e.target, "members", len(ids), "filter", len(req.Filter))

	go e.run(ctx, fn, ids, args, req)
	return nil
}

func (e *memberExecution) run(ctx context.Context, fn grid.Function, ids []grid.MemberID, args []any, req grid.Request) {
	defer req.Collector.EndResults()

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				req.Collector.AddError(id, err)
				return err
			}
			err := e.invoke(e.contextFor(fn, id, args, req), fn)
			if err != nil {
				req.Collector.AddError(id, err)
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		e.cluster.logger.Debug("function failed on a member", "function", fn.ID(), "target", e.target, "error", err)
	}
}

func (e *memberExecution) invoke(fc grid.FunctionContext, fn grid.Function) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprintf("function [%s] panicked on member [%s]: %v", fn.ID(), fc.MemberID(), r), errors.CategoryInternal).
				WithTextCode("FUNCTION_PANIC")
		}
	}()
	return fn.Execute(fc)
}

func (e *memberExecution) contextFor(fn grid.Function, id grid.MemberID, args []any, req grid.Request) grid.FunctionContext {
	var payload any
	if len(args) > 0 {
		payload = append([]any(nil), args...)
	}

	base := &functionContext{
		functionID: fn.ID(),
		args:       payload,
		member:     id,
		sender:     &collectorSender{member: id, collector: req.Collector},
	}
	if e.region == nil {
		return base
	}
	return &regionContext{functionContext: base, region: e.region, filter: req.Filter}
}

type functionContext struct {
	functionID string
	args       any
	member     grid.MemberID
	sender     grid.ResultSender
}

func (f *functionContext) FunctionID() string              { return f.functionID }
func (f *functionContext) Arguments() any                  { return f.args }
func (f *functionContext) ResultSender() grid.ResultSender { return f.sender }
func (f *functionContext) MemberID() grid.MemberID         { return f.member }

type regionContext struct {
	*functionContext
	region grid.Region
	filter grid.KeySet
}

func (r *regionContext) DataSet() grid.Region { return r.region }

func (r *regionContext) Filter() grid.KeySet {
	if r.filter == nil {
		return grid.KeySet{}
	}
	return r.filter
}

// collectorSender forwards a member's results to the request collector.
type collectorSender struct {
	member    grid.MemberID
	collector grid.ResultCollector
}

func (s *collectorSender) SendResult(result any) error {
	s.collector.AddResult(s.member, result)
	return nil
}

func (s *collectorSender) LastResult(result any) error {
	s.collector.AddResult(s.member, result)
	return nil
}

func (s *collectorSender) SendError(err error) error {
	s.collector.AddError(s.member, err)
	return nil
}

func joinIDs(ids []grid.MemberID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
