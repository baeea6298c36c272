package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
)

// maxLatencies bounds the latency sample the percentiles are computed from.
const maxLatencies = 10000

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	FilteredCount     int64        `json:"filtered_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      float64      `json:"p50_latency_ms"`
	P95LatencyMs      float64      `json:"p95_latency_ms"`
	P99LatencyMs      float64      `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type Aggregator struct {
	mu          sync.RWMutex
	total       int64
	cacheHits   int64
	cacheMisses int64
	zeroResults int64
	filtered    int64
	latencies   []float64
	next        int
	queries     map[string]int64
	zeroQueries map[string]int64
	startTime   time.Time
	topN        int
	logger      *slog.Logger
}

func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		latencies:   make([]float64, 0, 1024),
		queries:     make(map[string]int64),
		zeroQueries: make(map[string]int64),
		startTime:   time.Now(),
		topN:        topN,
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// Publish records value in process, letting the Aggregator stand in for a
// producer when Kafka is disabled.
func (a *Aggregator) Publish(_ context.Context, _ string, value any) error {
	event, ok := value.(SearchEvent)
	if !ok {
		return fmt.Errorf("unexpected analytics value %T", value)
	}
	a.Record(event)
	return nil
}

// HandleEvent returns a MessageHandler feeding the searchEvents topic into agg.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			return err
		}
		agg.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event SearchEvent) {
	key := event.Key()
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	switch event.CacheStatus {
	case "hit":
		a.cacheHits++
	case "miss":
		a.cacheMisses++
	}
	if event.Filtered {
		a.filtered++
	}
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroQueries[key]++
	}
	a.queries[key]++

	if len(a.latencies) < maxLatencies {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencies
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.total,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		FilteredCount:   a.filtered,
	}
	if len(a.latencies) > 0 {
		sorted := make([]float64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Float64s(sorted)

		var sum float64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = sum / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queries, a.topN)
	stats.ZeroResultQueries = topN(a.zeroQueries, a.topN)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then query text.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
