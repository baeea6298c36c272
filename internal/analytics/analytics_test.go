package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
)

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator(2)
	events := []SearchEvent{
		{Query: "Cats", Terms: []string{"cat"}, TotalHits: 3, LatencyMs: 1, CacheStatus: "miss"},
		{Query: "cat", Terms: []string{"cat"}, TotalHits: 3, LatencyMs: 2, CacheStatus: "hit"},
		{Query: "dog not cat", Terms: []string{"dog", "cat"}, TotalHits: 1, Filtered: true, LatencyMs: 3},
		{Query: "unicorn", Terms: []string{"unicorn"}, TotalHits: 0, LatencyMs: 4},
		{Query: "the", TotalHits: 0, LatencyMs: 5},
	}
	for _, ev := range events {
		agg.Record(ev)
	}

	stats := agg.Stats()
	if stats.TotalSearches != 5 || stats.CacheHits != 1 || stats.CacheMisses != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.ZeroResultCount != 2 || stats.FilteredCount != 1 {
		t.Errorf("zero=%d filtered=%d", stats.ZeroResultCount, stats.FilteredCount)
	}
	if stats.AvgLatencyMs != 3 || stats.P50LatencyMs != 3 || stats.P99LatencyMs != 5 {
		t.Errorf("latency avg=%v p50=%v p99=%v", stats.AvgLatencyMs, stats.P50LatencyMs, stats.P99LatencyMs)
	}
	if len(stats.TopQueries) != 2 || stats.TopQueries[0] != (QueryCount{Query: "cat", Count: 2}) {
		t.Errorf("top queries = %+v", stats.TopQueries)
	}
	if stats.ZeroResultQueries[0].Query != "the" || stats.ZeroResultQueries[1].Query != "unicorn" {
		t.Errorf("zero result queries = %+v", stats.ZeroResultQueries)
	}
}

func TestLatencySampleBounded(t *testing.T) {
	agg := NewAggregator(10)
	for i := 0; i < maxLatencies+10; i++ {
		agg.Record(SearchEvent{Query: "q", LatencyMs: float64(i)})
	}
	if len(agg.latencies) != maxLatencies {
		t.Errorf("kept %d latencies, want %d", len(agg.latencies), maxLatencies)
	}
}

func TestCollectorDeliversToAggregator(t *testing.T) {
	agg := NewAggregator(10)
	c := NewCollector(agg, 16)
	c.Start()
	for i := 0; i < 5; i++ {
		c.Track(SearchEvent{Query: "cat", Terms: []string{"cat"}, TotalHits: 1})
	}
	c.Close()
	c.Track(SearchEvent{Query: "late"})

	if got := agg.Stats().TotalSearches; got != 5 {
		t.Errorf("TotalSearches = %d, want 5", got)
	}
}

func TestPublishRejectsOtherValues(t *testing.T) {
	if err := NewAggregator(1).Publish(context.Background(), "k", "not an event"); err == nil {
		t.Fatal("expected error")
	}
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator(10)
	handle := HandleEvent(agg)
	value, _ := json.Marshal(SearchEvent{Query: "cat", Terms: []string{"cat"}, TotalHits: 2})
	if err := handle(context.Background(), []byte("cat"), value); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := handle(context.Background(), nil, []byte("{")); !errors.Is(err, kafka.ErrPoison) {
		t.Fatalf("expected ErrPoison, got %v", err)
	}
	if agg.Stats().TotalSearches != 1 {
		t.Error("event not recorded")
	}
}

func TestStatsHandler(t *testing.T) {
	agg := NewAggregator(10)
	agg.Record(SearchEvent{Query: "cat", TotalHits: 1})
	rec := httptest.NewRecorder()
	NewHandler(agg).Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	var stats AggregatedStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalSearches != 1 {
		t.Errorf("TotalSearches = %d", stats.TotalSearches)
	}
}
