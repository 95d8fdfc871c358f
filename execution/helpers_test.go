package execution

import (
	"context"
	"sync"

	"github.com/goliatone/go-datagrid/grid"
)

// fakeExecution answers every dispatch with the configured results, or never completes when hang
// is set.
type fakeExecution struct {
	mu       sync.Mutex
	requests []grid.Request
	contexts []context.Context
	results  []any
	remote   error
	dispatch error
	hang     bool
}

func (f *fakeExecution) Dispatch(ctx context.Context, req grid.Request) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.contexts = append(f.contexts, ctx)
	results, remote, dispatchErr, hang := f.results, f.remote, f.dispatch, f.hang
	f.mu.Unlock()

	if dispatchErr != nil {
		return dispatchErr
	}
	if hang {
		return nil
	}

	go func() {
		for _, r := range results {
			req.Collector.AddResult("m1", r)
		}
		if remote != nil {
			req.Collector.AddError("m1", remote)
		}
		req.Collector.EndResults()
	}()
	return nil
}

func (f *fakeExecution) Contexts() []context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]context.Context(nil), f.contexts...)
}

func (f *fakeExecution) Requests() []grid.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]grid.Request(nil), f.requests...)
}

// fakeService records which resolution method was used.
type fakeService struct {
	mu    sync.Mutex
	calls []string
	args  [][]string
	exec  *fakeExecution
}

func newFakeService() *fakeService {
	return &fakeService{exec: &fakeExecution{}}
}

func (s *fakeService) record(call string, args ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	s.args = append(s.args, args)
}

func (s *fakeService) OnServer(pool grid.Pool) (grid.Execution, error) {
	s.record("OnServer", pool.Name())
	return s.exec, nil
}

func (s *fakeService) OnServers(pool grid.Pool) (grid.Execution, error) {
	s.record("OnServers", pool.Name())
	return s.exec, nil
}

func (s *fakeService) OnRegion(region grid.Region) (grid.Execution, error) {
	s.record("OnRegion", region.Name())
	return s.exec, nil
}

func (s *fakeService) OnMembers(members ...grid.MemberID) (grid.Execution, error) {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = string(m)
	}
	s.record("OnMembers", ids...)
	return s.exec, nil
}

func (s *fakeService) OnGroups(groups ...string) (grid.Execution, error) {
	s.record("OnGroups", groups...)
	return s.exec, nil
}

func (s *fakeService) OnAllMembers() (grid.Execution, error) {
	s.record("OnAllMembers")
	return s.exec, nil
}

func (s *fakeService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type fakePool struct {
	name string
}

func (p fakePool) Name() string             { return p.name }
func (p fakePool) Servers() []grid.MemberID { return []grid.MemberID{"s1"} }

type fakePoolSource struct {
	mu      sync.Mutex
	pool    grid.Pool
	lookups int
}

func (s *fakePoolSource) DefaultPool() (grid.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	return s.pool, nil
}

func (s *fakePoolSource) set(p grid.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = p
}

type namedRegion struct {
	grid.Region
	name string
}

func (r namedRegion) Name() string { return r.name }

type staticFunction struct {
	id        string
	hasResult bool
}

func (f staticFunction) ID() string                            { return f.id }
func (f staticFunction) HasResult() bool                       { return f.hasResult }
func (f staticFunction) Execute(fc grid.FunctionContext) error { return nil }
