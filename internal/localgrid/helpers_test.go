package localgrid

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/goliatone/go-datagrid/grid"
)

type order struct {
	ID     string
	Status string
	Amount int
}

func testConfig() Config {
	return Config{
		Name: "test",
		Members: []MemberConfig{
			{ID: "server-1", Groups: []string{"east"}, Server: true},
			{ID: "server-2", Groups: []string{"east", "west"}, Server: true},
			{ID: "server-3", Groups: []string{"west"}, Server: true},
			{ID: "client-1"},
		},
		Pools: []PoolConfig{
			{Name: "default", Servers: []string{"server-1", "server-2", "server-3"}},
			{Name: "east", Servers: []string{"server-1", "server-2"}},
		},
		Regions: []RegionConfig{
			{Name: "Orders", Type: Partitioned},
			{Name: "Customers", Type: Replicated, Entries: map[string]any{"c1": "alice", "c2": "bob"}},
		},
	}
}

// firstLetterResolver owns keys by their first letter: a-h server-1, i-p server-2, rest server-3.
func firstLetterResolver(key any, hosts []grid.MemberID) grid.MemberID {
	s, _ := key.(string)
	switch {
	case s == "":
		return hosts[0]
	case s[0] <= 'h':
		return "server-1"
	case s[0] <= 'p':
		return "server-2"
	default:
		return "server-3"
	}
}

func newTestCluster(t *testing.T, opts ...Option) *Cluster {
	t.Helper()
	c, err := New(testConfig(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// funcFunction is a grid.Function backed by a closure.
type funcFunction struct {
	id string
	fn func(fc grid.FunctionContext) error
}

func (f *funcFunction) ID() string                            { return f.id }
func (f *funcFunction) HasResult() bool                       { return true }
func (f *funcFunction) Execute(fc grid.FunctionContext) error { return f.fn(fc) }

// memberEcho answers with the executing member ID.
func memberEcho(id string) *funcFunction {
	return &funcFunction{id: id, fn: func(fc grid.FunctionContext) error {
		return fc.ResultSender().LastResult(string(fc.MemberID()))
	}}
}

func dispatch(t *testing.T, exec grid.Execution, req grid.Request) ([]any, error) {
	t.Helper()
	if req.Collector == nil {
		req.Collector = grid.NewDefaultResultCollector()
	}
	if err := exec.Dispatch(context.Background(), req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return req.Collector.Results(ctx)
}

func sortedStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, _ := v.(string)
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
