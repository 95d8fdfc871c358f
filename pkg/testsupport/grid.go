package testsupport

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-datagrid/grid"
)

// CollectorEntry is one result or error seen by a RecordingCollector.
type CollectorEntry struct {
	Member grid.MemberID
	Result any
	Err    error
}

// RecordingCollector is a grid.DefaultResultCollector that also remembers who sent what.
type RecordingCollector struct {
	*grid.DefaultResultCollector

	mu      sync.Mutex
	entries []CollectorEntry
}

var _ grid.ResultCollector = (*RecordingCollector)(nil)

// NewRecordingCollector creates an empty recording collector.
func NewRecordingCollector() *RecordingCollector {
	return &RecordingCollector{DefaultResultCollector: grid.NewDefaultResultCollector()}
}

// AddResult records result and forwards it.
func (c *RecordingCollector) AddResult(member grid.MemberID, result any) {
	c.mu.Lock()
	c.entries = append(c.entries, CollectorEntry{Member: member, Result: result})
	c.mu.Unlock()
	c.DefaultResultCollector.AddResult(member, result)
}

// AddError records err and forwards it.
func (c *RecordingCollector) AddError(member grid.MemberID, err error) {
	c.mu.Lock()
	c.entries = append(c.entries, CollectorEntry{Member: member, Err: err})
	c.mu.Unlock()
	c.DefaultResultCollector.AddError(member, err)
}

// Entries returns everything recorded so far in arrival order.
func (c *RecordingCollector) Entries() []CollectorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CollectorEntry(nil), c.entries...)
}

// Members returns the distinct members that sent anything, sorted.
func (c *RecordingCollector) Members() []grid.MemberID {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[grid.MemberID]struct{}, len(c.entries))
	out := make([]grid.MemberID, 0, len(c.entries))
	for _, e := range c.entries {
		if _, ok := seen[e.Member]; ok {
			continue
		}
		seen[e.Member] = struct{}{}
		out = append(out, e.Member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Responder produces what member sends back for req.
type Responder func(member grid.MemberID, req grid.Request) ([]any, error)

// ServiceCall is one resolution made on a RecordingFunctionService.
type ServiceCall struct {
	Method string
	Args   []string
}

// RecordingFunctionService is a grid.FunctionService that records every resolution and dispatch.
// Each selected member answers through the Responder; the default echoes the member ID.
type RecordingFunctionService struct {
	mu         sync.Mutex
	members    []grid.MemberID
	respond    Responder
	resolveErr error
	calls      []ServiceCall
	requests   []grid.Request
}

var _ grid.FunctionService = (*RecordingFunctionService)(nil)

// NewRecordingFunctionService creates a service whose broadcast targets are members.
func NewRecordingFunctionService(members []grid.MemberID, respond Responder) *RecordingFunctionService {
	if respond == nil {
		respond = func(member grid.MemberID, _ grid.Request) ([]any, error) {
			return []any{string(member)}, nil
		}
	}
	return &RecordingFunctionService{
		members: append([]grid.MemberID(nil), members...),
		respond: respond,
	}
}

// FailResolution makes every following resolution return err.
func (s *RecordingFunctionService) FailResolution(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolveErr = err
}

// Calls returns the resolutions made so far.
func (s *RecordingFunctionService) Calls() []ServiceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ServiceCall(nil), s.calls...)
}

// Requests returns the dispatched requests.
func (s *RecordingFunctionService) Requests() []grid.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]grid.Request(nil), s.requests...)
}

func (s *RecordingFunctionService) resolve(method string, args []string, members []grid.MemberID) (grid.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ServiceCall{Method: method, Args: args})
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return &recordedExecution{service: s, members: members}, nil
}

func (s *RecordingFunctionService) OnServer(pool grid.Pool) (grid.Execution, error) {
	var members []grid.MemberID
	if servers := pool.Servers(); len(servers) > 0 {
		members = servers[:1]
	}
	return s.resolve("OnServer", []string{pool.Name()}, members)
}

func (s *RecordingFunctionService) OnServers(pool grid.Pool) (grid.Execution, error) {
	return s.resolve("OnServers", []string{pool.Name()}, pool.Servers())
}

func (s *RecordingFunctionService) OnRegion(region grid.Region) (grid.Execution, error) {
	return s.resolve("OnRegion", []string{region.Name()}, s.members)
}

func (s *RecordingFunctionService) OnMembers(members ...grid.MemberID) (grid.Execution, error) {
	args := make([]string, len(members))
	for i, m := range members {
		args[i] = string(m)
	}
	return s.resolve("OnMembers", args, members)
}

func (s *RecordingFunctionService) OnGroups(groups ...string) (grid.Execution, error) {
	return s.resolve("OnGroups", groups, s.members)
}

func (s *RecordingFunctionService) OnAllMembers() (grid.Execution, error) {
	return s.resolve("OnAllMembers", nil, s.members)
}

type recordedExecution struct {
	service *RecordingFunctionService
	members []grid.MemberID
}

func (e *recordedExecution) Dispatch(ctx context.Context, req grid.Request) error {
	if req.Collector == nil {
		return errors.New("result collector is required", errors.CategoryBadInput)
	}
	e.service.mu.Lock()
	e.service.requests = append(e.service.requests, req)
	respond := e.service.respond
	e.service.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	members := append([]grid.MemberID(nil), e.members...)
	go func() {
		defer req.Collector.EndResults()
		for _, m := range members {
			results, err := respond(m, req)
			for _, r := range results {
				req.Collector.AddResult(m, r)
			}
			if err != nil {
				req.Collector.AddError(m, err)
			}
		}
	}()
	return nil
}
