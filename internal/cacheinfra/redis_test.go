package cacheinfra

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory RedisClient.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getHits int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	f.getHits++
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func newTestRedisService(t *testing.T, client RedisClient) *RedisService {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Redis.KeyPrefix = "test:"
	cfg.TTL = time.Minute

	svc, err := NewRedisService(cfg, client)
	if err != nil {
		t.Fatalf("NewRedisService() error = %v", err)
	}
	return svc
}

type cachedOrder struct {
	ID     string
	Amount int
}

func TestRedisService_GetOrFetch(t *testing.T) {
	client := newFakeRedis()
	svc := newTestRedisService(t, client)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (cachedOrder, error) {
		calls++
		return cachedOrder{ID: "o1", Amount: 10}, nil
	}

	first, err := svc.GetOrFetch(ctx, "Orders::o1", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	second, err := svc.GetOrFetch(ctx, "Orders::o1", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}
	if first != second || second.(cachedOrder).Amount != 10 {
		t.Errorf("cached value = %#v, want %#v", second, first)
	}
	if !client.has("test:Orders::o1") {
		t.Error("expected prefixed key in redis")
	}
	if client.ttls["test:Orders::o1"] != time.Minute {
		t.Errorf("expected TTL to be applied, got %v", client.ttls["test:Orders::o1"])
	}
}

func TestRedisService_MissAndHitAgreeOnNestedValues(t *testing.T) {
	client := newFakeRedis()
	svc := newTestRedisService(t, client)
	ctx := context.Background()

	fetch := func(ctx context.Context) ([]any, error) {
		return []any{cachedOrder{ID: "o1", Amount: 10}}, nil
	}

	miss, err := svc.GetOrFetch(ctx, "Orders::all", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch() miss error = %v", err)
	}
	hit, err := svc.GetOrFetch(ctx, "Orders::all", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch() hit error = %v", err)
	}
	if client.getHits != 1 {
		t.Fatalf("expected the second call to be served from redis, got %d hits", client.getHits)
	}

	if !reflect.DeepEqual(miss, hit) {
		t.Errorf("miss = %#v, hit = %#v; want the same shape", miss, hit)
	}
	row, ok := miss.([]any)[0].(map[string]any)
	if !ok {
		t.Fatalf("expected nested struct decoded as map, got %T", miss.([]any)[0])
	}
	if row["ID"] != "o1" {
		t.Errorf("row = %v, want ID o1", row)
	}
}

func TestRedisService_FallsBackOnBackendErrors(t *testing.T) {
	client := newFakeRedis()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")
	svc := newTestRedisService(t, client)

	got, err := svc.GetOrFetch(context.Background(), "k", func(ctx context.Context) (int, error) { return 3, nil })
	if err != nil || got != 3 {
		t.Errorf("GetOrFetch() = %v, %v; want 3", got, err)
	}
}

func TestRedisService_FetchErrorsAreNotStored(t *testing.T) {
	client := newFakeRedis()
	svc := newTestRedisService(t, client)
	boom := errors.New("boom")

	_, err := svc.GetOrFetch(context.Background(), "k", func(ctx context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if client.has("test:k") {
		t.Error("errors must not be cached")
	}
}

func TestRedisService_Invalidation(t *testing.T) {
	client := newFakeRedis()
	svc := newTestRedisService(t, client)
	ctx := context.Background()

	for _, k := range []string{"Orders::a", "Orders::b", "Customers::a"} {
		key := k
		_, _ = svc.GetOrFetch(ctx, key, func(context.Context) (string, error) { return key, nil })
	}

	if err := svc.DeleteByPrefix(ctx, "Orders::"); err != nil {
		t.Fatalf("DeleteByPrefix() error = %v", err)
	}
	if client.has("test:Orders::a") || client.has("test:Orders::b") || !client.has("test:Customers::a") {
		t.Error("DeleteByPrefix removed the wrong keys")
	}

	if err := svc.InvalidateKeys(ctx, []string{"Customers::a"}); err != nil {
		t.Fatalf("InvalidateKeys() error = %v", err)
	}
	if client.has("test:Customers::a") {
		t.Error("InvalidateKeys did not remove the key")
	}
	if err := svc.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestNewRedisService_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redis.Addr = ""
	if _, err := NewRedisService(cfg, newFakeRedis()); err == nil {
		t.Error("expected error for missing redis address")
	}
}
