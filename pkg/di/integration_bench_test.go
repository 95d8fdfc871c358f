package di

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-datagrid/cache"
	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/query"
)

// TestConcurrentAccess runs cached native queries from many goroutines.
func TestConcurrentAccess(t *testing.T) {
	container := newTestContainer(t)
	repo := newMockOrderRepository()
	statuses := []string{"open", "closed", "pending", "shipped"}
	for i := 0; i < 100; i++ {
		seedOrders(t, repo, Order{
			ID:     fmt.Sprintf("order-%d", i),
			Status: statuses[i%len(statuses)],
			Amount: float64(i),
		})
	}

	exec := container.QueryExecutor(NewRepositoryExecutor[Order](container, repo))
	ctx := context.Background()

	const numGoroutines = 50
	const operationsPerGoroutine = 20

	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines*operationsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				status := statuses[(workerID+j)%len(statuses)]
				got, err := exec.Execute(ctx, byStatus, "", status)
				if err != nil {
					errs <- fmt.Errorf("worker %d operation %d failed: %v", workerID, j, err)
					continue
				}
				if len(got) != 25 {
					errs <- fmt.Errorf("worker %d operation %d got %d orders", workerID, j, len(got))
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	var errorCount int
	for err := range errs {
		t.Error(err)
		errorCount++
		if errorCount > 10 {
			t.Error("... and more errors")
			break
		}
	}
	if errorCount > 0 {
		t.Fatalf("Concurrent access test failed with %d errors", errorCount)
	}

	totalOperations := numGoroutines * operationsPerGoroutine
	rawCalls := repo.getCallCount("Raw")
	if rawCalls >= totalOperations {
		t.Errorf("Expected cache to reduce Raw calls: got %d calls for %d operations", rawCalls, totalOperations)
	}

	t.Logf("Concurrent test completed: %d operations resulted in %d Raw calls (%.1f%% cache hit rate)",
		totalOperations, rawCalls, float64(totalOperations-rawCalls)/float64(totalOperations)*100)
}

// TestConcurrentExecutions dispatches functions from many goroutines through shared templates.
func TestConcurrentExecutions(t *testing.T) {
	container := newTestContainer(t)
	var executed atomic.Int64
	if _, err := container.RegisterFunction("tick", func(fc grid.FunctionContext, n int) int {
		executed.Add(1)
		return n
	}); err != nil {
		t.Fatal(err)
	}

	all, err := container.OnAllMembers()
	if err != nil {
		t.Fatal(err)
	}
	one, err := container.OnServer("")
	if err != nil {
		t.Fatal(err)
	}

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results, err := all.ExecuteByID(context.Background(), "tick", n)
			if err != nil || len(results) != 3 {
				errs <- fmt.Errorf("all members: %v, %v", results, err)
			}
			value, err := one.ExecuteAndExtractByID(context.Background(), "tick", n)
			if err != nil || value != n {
				errs <- fmt.Errorf("one server: %v, %v", value, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := executed.Load(); got != workers*4 {
		t.Errorf("expected %d executions, got %d", workers*4, got)
	}
}

// TestTTLExpiryIntegration checks that the grid query cache honors the configured TTL.
func TestTTLExpiryIntegration(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.TTL = 100 * time.Millisecond
	cfg.Cache.EvictionInterval = 50 * time.Millisecond

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("Failed to create DI container: %v", err)
	}

	ctx := context.Background()
	exec := container.QueryExecutor()
	method := &query.Method{Name: "Customers.All", Region: "Customers"}
	customers, _ := container.Cluster().Region("Customers")

	first, err := exec.Execute(ctx, method, "SELECT * FROM /Customers")
	if err != nil || len(first) != 1 {
		t.Fatalf("first Execute = %v, %v", first, err)
	}

	customers.Put("c2", "bob")
	cached, _ := exec.Execute(ctx, method, "SELECT * FROM /Customers")
	if len(cached) != 1 {
		t.Errorf("expected a cached result before TTL, got %v", cached)
	}

	time.Sleep(200 * time.Millisecond)

	fresh, _ := exec.Execute(ctx, method, "SELECT * FROM /Customers")
	if len(fresh) != 2 {
		t.Errorf("expected a fresh result after TTL, got %v", fresh)
	}
}

// TestBatchOperationsIntegration caches one entry per distinct argument list.
func TestBatchOperationsIntegration(t *testing.T) {
	container := newTestContainer(t)
	repo := newMockOrderRepository()
	exec := NewRepositoryExecutor[Order](container, repo)
	ctx := context.Background()

	const batchSize = 50
	for i := 0; i < batchSize; i++ {
		seedOrders(t, repo, Order{ID: fmt.Sprintf("batch-%d", i), Status: fmt.Sprintf("s-%d", i)})
	}

	for round := 0; round < 2; round++ {
		for i := 0; i < batchSize; i++ {
			got, err := exec.Execute(ctx, byStatus, "", fmt.Sprintf("s-%d", i))
			if err != nil || len(got) != 1 {
				t.Fatalf("round %d status %d: %v, %v", round, i, got, err)
			}
		}
	}

	if calls := repo.getCallCount("Raw"); calls != batchSize {
		t.Errorf("Expected cached reads to not increase calls, got %d", calls)
	}
	if exec.TrackedKeys() != batchSize {
		t.Errorf("Expected %d tracked keys, got %d", batchSize, exec.TrackedKeys())
	}

	if err := exec.InvalidateAll(ctx); err != nil {
		t.Fatal(err)
	}
	if exec.TrackedKeys() != 0 {
		t.Errorf("InvalidateAll should drop every key, %d left", exec.TrackedKeys())
	}
}

// BenchmarkKeySerializationPerformance benchmarks key serialization performance
func BenchmarkKeySerializationPerformance(b *testing.B) {
	serializer := cache.NewDefaultKeySerializer()

	testCases := []struct {
		name string
		args []any
	}{
		{"simple_args", []any{"SELECT * FROM /Orders WHERE status = $1", "open", 123, true}},
		{"complex_struct", []any{Order{ID: "bench", Status: "open", Amount: 12.5, CreateTs: time.Now().Unix()}}},
		{"slice_args", []any{[]string{"a", "b", "c"}, []int{1, 2, 3, 4, 5}}},
		{"map_args", []any{map[string]any{"key1": "value1", "key2": 42, "key3": true}}},
		{"key_set", []any{grid.NewKeySet("o1", "o2", "o3", "o4")}},
		{"mixed_complex", []any{
			"method",
			Order{ID: "test"},
			[]string{"filter1", "filter2"},
			map[string]int{"limit": 10, "offset": 0},
		}},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = serializer.SerializeKey("grid::Orders.ByStatus", tc.args...)
			}
		})
	}
}

// BenchmarkCachedVsBaseExecutor compares cached and uncached native query execution.
func BenchmarkCachedVsBaseExecutor(b *testing.B) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		b.Fatalf("Failed to create DI container: %v", err)
	}

	repo := newMockOrderRepository()
	for i := 0; i < 1000; i++ {
		seedOrders(b, repo, Order{ID: fmt.Sprintf("bench-%d", i), Status: fmt.Sprintf("s-%d", i%100)})
	}

	base := query.NewRepositoryExecutor[Order](repo)
	cached := NewRepositoryExecutor[Order](container, repo)
	ctx := context.Background()

	b.Run("base_executor", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_, _ = base.Execute(ctx, byStatus, "", fmt.Sprintf("s-%d", i%100))
		}
	})

	for i := 0; i < 100; i++ {
		_, _ = cached.Execute(ctx, byStatus, "", fmt.Sprintf("s-%d", i))
	}

	b.Run("cached_executor_cache_hit", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = cached.Execute(ctx, byStatus, "", fmt.Sprintf("s-%d", i%100))
		}
	})
}

// generateComplexArgs helper function for benchmarks
func generateComplexArgs(depth int) []any {
	if depth == 0 {
		return []any{"simple", 123}
	}

	nested := make(map[string]any)
	nested["depth"] = depth
	items := make([]any, depth*2)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	nested["slice"] = items

	if depth > 1 {
		nested["nested"] = generateComplexArgs(depth - 1)
	}

	return []any{nested}
}

// BenchmarkCacheKeyGenerationComplexity benchmarks key generation with varying complexity
func BenchmarkCacheKeyGenerationComplexity(b *testing.B) {
	serializer := cache.NewDefaultKeySerializer()

	for _, level := range []int{1, 3, 5, 7, 10} {
		b.Run(fmt.Sprintf("complexity_level_%d", level), func(b *testing.B) {
			args := generateComplexArgs(level)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = serializer.SerializeKey("ComplexMethod", args...)
			}
		})
	}
}

// BenchmarkTemplateDispatch measures a function round trip through the local grid.
func BenchmarkTemplateDispatch(b *testing.B) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		b.Fatal(err)
	}
	if _, err := container.RegisterFunction("noop", func() int { return 1 }); err != nil {
		b.Fatal(err)
	}
	tmpl, err := container.OnServer("")
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = tmpl.ExecuteAndExtractByID(ctx, "noop")
		}
	})
}
