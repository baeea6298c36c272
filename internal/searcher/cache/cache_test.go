package cache

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/redis/go-redis/v9"
)

// memStore is an in-memory Store with Redis miss semantics.
type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	default:
		return errors.New("unsupported value type")
	}
	return nil
}

func (s *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.data, key)
			n++
		}
	}
	return n, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

type fixture struct {
	engine *indexer.Engine
	exec   *executor.Executor
	store  *memStore
	cache  *QueryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	a, err := analyzer.FromConfig(config.Default().Analysis)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	engine := indexer.NewEngine(a, nil)
	engine.IndexBatch([]index.Document{
		{ID: "d1", Text: "cat dog"},
		{ID: "d2", Text: "cat"},
		{ID: "d3", Text: "bird"},
	})
	store := newMemStore()
	c := New(store, engine.Generation, config.RedisConfig{CacheTTL: time.Minute}, nil)
	engine.OnChange(func(indexer.Change) {
		if err := c.Invalidate(context.Background()); err != nil {
			t.Errorf("Invalidate: %v", err)
		}
	})
	return &fixture{engine: engine, exec: executor.New(engine, a), store: store, cache: c}
}

func (f *fixture) search(t *testing.T, query string, hook func()) (*executor.SearchResult, bool) {
	t.Helper()
	ctx := context.Background()
	plan := f.exec.Plan(query)
	res, hit, err := f.cache.GetOrCompute(ctx, plan, 10, func() (*executor.SearchResult, error) {
		res, err := f.exec.Execute(ctx, query, plan, 10)
		if hook != nil {
			hook()
		}
		return res, err
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	return res, hit
}

func ids(r *executor.SearchResult) []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.DocumentID)
	}
	return out
}

func TestGetOrComputeCaches(t *testing.T) {
	f := newFixture(t)
	first, hit := f.search(t, "dog", nil)
	if hit {
		t.Fatal("first search reported a hit")
	}
	calls := 0
	second, hit := f.search(t, "dog", func() { calls++ })
	if !hit || calls != 0 {
		t.Fatalf("second search hit=%v compute calls=%d", hit, calls)
	}
	if strings.Join(ids(first), ",") != strings.Join(ids(second), ",") {
		t.Errorf("cached ranking %v differs from computed %v", ids(second), ids(first))
	}
	if hits, misses := f.cache.Stats(); hits != 1 || misses != 1 {
		t.Errorf("hits=%d misses=%d", hits, misses)
	}
}

func TestResultComputedBeforeDeleteIsNotServed(t *testing.T) {
	f := newFixture(t)

	// The delete and its cache flush complete between ranking and storing.
	stale, _ := f.search(t, "dog", func() { f.engine.DeleteByID("d1") })
	if len(stale.Results) != 1 || stale.Results[0].DocumentID != "d1" {
		t.Fatalf("unexpected in-flight result: %v", ids(stale))
	}
	if f.store.len() != 1 {
		t.Fatalf("expected the in-flight result to be stored, have %d keys", f.store.len())
	}

	fresh, hit := f.search(t, "dog", nil)
	if hit {
		t.Fatal("served a result computed before the delete")
	}
	for _, id := range ids(fresh) {
		if id == "d1" {
			t.Fatalf("deleted document returned: %v", ids(fresh))
		}
	}
}

func TestInvalidateFlushesSearchKeys(t *testing.T) {
	f := newFixture(t)
	f.search(t, "cat", nil)
	f.search(t, "bird", nil)
	f.store.Set(context.Background(), "session:1", "keep", 0)

	if err := f.cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if f.store.len() != 1 {
		t.Errorf("%d keys left, want only the unrelated one", f.store.len())
	}
	if _, ok := f.cache.Get(context.Background(), f.exec.Plan("cat"), 10); ok {
		t.Error("entry survived invalidation")
	}
}

func TestStoreErrorsFallBackToCompute(t *testing.T) {
	f := newFixture(t)
	f.store.failGet = true
	res, hit := f.search(t, "cat", nil)
	if hit || res.TotalHits != 2 {
		t.Errorf("hit=%v total=%d", hit, res.TotalHits)
	}
}

func TestBuildKey(t *testing.T) {
	base := BuildKey(parser.Parse([]string{"dog", "and", "cat"}), 10, 1)
	if !strings.HasPrefix(base, keyPrefix) {
		t.Fatalf("key %q lacks prefix", base)
	}
	if again := BuildKey(parser.Parse([]string{"dog", "and", "cat"}), 10, 1); again != base {
		t.Error("key is not deterministic")
	}

	different := map[string]*parser.QueryPlan{
		"no operator":    parser.Parse([]string{"dog", "cat"}),
		"or operator":    parser.Parse([]string{"dog", "or", "cat"}),
		"swapped order":  parser.Parse([]string{"cat", "and", "dog"}),
		"joined operand": parser.Parse([]string{"dogcat"}),
	}
	for name, plan := range different {
		if BuildKey(plan, 10, 1) == base {
			t.Errorf("%s: key collides with base", name)
		}
	}
	if BuildKey(parser.Parse([]string{"dog", "and", "cat"}), 20, 1) == base {
		t.Error("limit not part of the key")
	}
	if BuildKey(parser.Parse([]string{"dog", "and", "cat"}), 10, 2) == base {
		t.Error("generation not part of the key")
	}
}
