// Package cache stores search results in Redis. Keys are derived from the
// normalized query terms and the index generation, so queries that normalize
// identically share an entry and a result computed before an index change is
// never served after it. Every index change also flushes the cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Store is the subset of *pkgredis.Client the cache needs. A missing key is
// reported with an error satisfying pkgredis.IsNilError.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store      Store
	generation func() uint64
	cfg        config.RedisConfig
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// New creates a QueryCache. generation reports the current index generation;
// indexer.Engine.Generation fits. m may be nil.
func New(store Store, generation func() uint64, cfg config.RedisConfig, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:      store,
		generation: generation,
		cfg:        cfg,
		metrics:    m,
		logger:     slog.Default().With("component", "query-cache"),
	}
}

// Get looks plan up at the current index generation.
func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	return c.get(ctx, plan, BuildKey(plan, limit, c.generation()))
}

func (c *QueryCache) get(ctx context.Context, plan *parser.QueryPlan, key string) (*executor.SearchResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "terms", plan.Terms, "key", key)
	return &result, true
}

// Set stores result under the generation it was computed at. A result that
// raced with an index change therefore lands on a key no later lookup uses.
func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := BuildKey(plan, limit, result.Generation)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs computeFn once per key,
// however many callers ask concurrently.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	key := BuildKey(plan, limit, c.generation())
	if result, ok := c.get(ctx, plan, key); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, plan, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.store.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey hashes the operator-stripped terms, the boolean constraints, the
// limit and the index generation. Term order matters: constraints resolve by
// position.
func BuildKey(plan *parser.QueryPlan, limit int, generation uint64) string {
	var b strings.Builder
	b.WriteString(strings.Join(plan.Terms, "\x1f"))
	for _, p := range plan.And {
		fmt.Fprintf(&b, "|and:%s\x1f%s", p.Left, p.Right)
	}
	for _, p := range plan.Or {
		fmt.Fprintf(&b, "|or:%s\x1f%s", p.Left, p.Right)
	}
	for _, term := range plan.Not {
		fmt.Fprintf(&b, "|not:%s", term)
	}
	fmt.Fprintf(&b, "|limit=%d|gen=%d", limit, generation)
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
