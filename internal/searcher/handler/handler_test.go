package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type trackerFunc func(analytics.SearchEvent)

func (f trackerFunc) Track(ev analytics.SearchEvent) { f(ev) }

func setup(t *testing.T) (*Handler, *metrics.Metrics) {
	t.Helper()
	return setupWithTracker(t, nil)
}

func setupWithTracker(t *testing.T, tracker Tracker) (*Handler, *metrics.Metrics) {
	t.Helper()
	cfg := config.Default()
	a, err := analyzer.FromConfig(cfg.Analysis)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	engine := indexer.NewEngine(a, nil)
	engine.IndexBatch([]index.Document{
		{ID: "d1", Text: "cat dog"},
		{ID: "d2", Text: "cat"},
		{ID: "d3", Text: "bird"},
		{ID: "d4", Text: "dog dog bird"},
	})
	m := metrics.New(prometheus.NewRegistry())
	return New(executor.New(engine, a), nil, tracker, m, cfg.Search), m
}

func search(t *testing.T, h *Handler, rawQuery string) (*httptest.ResponseRecorder, executor.SearchResult) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?"+rawQuery, nil))
	var res executor.SearchResult
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec, res
}

func TestSearchRanks(t *testing.T) {
	h, m := setup(t)
	rec, res := search(t, h, "q=dog")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if res.TotalHits != 2 || len(res.Results) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Results[0].Rank != 1 || res.Results[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", res.Results[0].Rank, res.Results[1].Rank)
	}
	if res.Results[0].Score < res.Results[1].Score {
		t.Error("results not ordered by score")
	}
	if len(res.Lines) != 0 {
		t.Errorf("lines without topic: %v", res.Lines)
	}
	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit queries = %v, want 1", got)
	}
}

func TestSearchTopicLines(t *testing.T) {
	h, _ := setup(t)
	_, res := search(t, h, "q=dog&topic=301&limit=1")
	if len(res.Results) != 1 || len(res.Lines) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	fields := strings.Fields(res.Lines[0])
	if len(fields) != 6 || fields[0] != "301" || fields[1] != "Q0" || fields[3] != "1" || fields[5] != "vsm" {
		t.Errorf("line = %q", res.Lines[0])
	}
	if fields[2] != res.Results[0].DocumentID {
		t.Errorf("line doc = %s, want %s", fields[2], res.Results[0].DocumentID)
	}
}

func TestSearchNotFilter(t *testing.T) {
	h, _ := setup(t)
	_, res := search(t, h, "q=cat+not+dog")
	for _, r := range res.Results {
		if r.DocumentID == "d1" || r.DocumentID == "d4" {
			t.Errorf("document %s contains dog but was returned", r.DocumentID)
		}
	}
	if !res.Filtered {
		t.Error("expected Filtered")
	}
}

func TestSearchEmptyAndStopwordQueries(t *testing.T) {
	h, m := setup(t)
	for _, q := range []string{"q=", "q=the+of"} {
		rec, res := search(t, h, q)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", q, rec.Code)
		}
		if res.TotalHits != 0 || len(res.Results) != 0 {
			t.Errorf("%s: expected no results, got %+v", q, res)
		}
	}
	if got := testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("zero_result")); got != 2 {
		t.Errorf("zero_result queries = %v, want 2", got)
	}
}

func TestSearchBadParams(t *testing.T) {
	h, _ := setup(t)
	for _, q := range []string{"", "q=dog&limit=0", "q=dog&limit=abc"} {
		if rec, _ := search(t, h, q); rec.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestSearchLimitCapped(t *testing.T) {
	h, _ := setup(t)
	h.cfg.MaxResults = 1
	_, res := search(t, h, "q=cat+dog+bird&limit=50")
	if len(res.Results) != 1 {
		t.Errorf("returned %d results, want 1", len(res.Results))
	}
}

func TestCacheEndpointsDisabled(t *testing.T) {
	h, _ := setup(t)
	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "disabled") {
		t.Errorf("stats: %d %s", rec.Code, rec.Body)
	}
	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "caching is disabled") {
		t.Errorf("invalidate: %d %s", rec.Code, rec.Body)
	}
}

// downStore fails every operation like an unreachable Redis.
type downStore struct{}

func (downStore) Get(context.Context, string) (string, error) { return "", errors.New("redis down") }
func (downStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}
func (downStore) FlushByPattern(context.Context, string) (int64, error) {
	return 0, errors.New("redis down")
}

func TestCacheInvalidateStoreDown(t *testing.T) {
	h, _ := setup(t)
	h.cache = cache.New(downStore{}, func() uint64 { return 0 }, config.RedisConfig{}, nil)

	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("invalidate status = %d, want 503", rec.Code)
	}

	// searches still succeed without the cache
	if rec, res := search(t, h, "q=cat"); rec.Code != http.StatusOK || res.TotalHits != 2 {
		t.Errorf("search with cache down: %d %+v", rec.Code, res)
	}
}

func TestSearchDeadlineExceeded(t *testing.T) {
	h, _ := setup(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=cat", nil).WithContext(ctx))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestSearchTracksEvent(t *testing.T) {
	var events []analytics.SearchEvent
	h, _ := setupWithTracker(t, trackerFunc(func(ev analytics.SearchEvent) {
		events = append(events, ev)
	}))

	search(t, h, "q=Dogs+not+cat")
	search(t, h, "limit=x&q=dog")

	if len(events) != 1 {
		t.Fatalf("tracked %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Query != "Dogs not cat" || ev.Key() != "dog cat" {
		t.Errorf("query=%q key=%q", ev.Query, ev.Key())
	}
	if !ev.Filtered || ev.TotalHits != 1 || ev.Returned != 1 || ev.CacheStatus != "disabled" {
		t.Errorf("unexpected event: %+v", ev)
	}
}
