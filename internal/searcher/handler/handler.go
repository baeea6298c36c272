package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
)

type SearchExecutor interface {
	Plan(query string) *parser.QueryPlan
	Execute(ctx context.Context, query string, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// Tracker receives one event per completed search.
type Tracker interface {
	Track(event analytics.SearchEvent)
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	tracker  Tracker
	metrics  *metrics.Metrics
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// New creates a search Handler. queryCache, tracker and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, tracker Tracker, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		tracker:  tracker,
		metrics:  m,
		cfg:      cfg,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=&limit=&topic=. A topic adds the
// ranking as TREC run lines.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	if !params.Has("q") {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	query := params.Get("q")

	limit := h.cfg.DefaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.cfg.MaxResults)
	}

	plan := h.executor.Plan(query)
	cacheStatus := "disabled"
	var result *executor.SearchResult
	var err error
	switch {
	case len(plan.Terms) == 0:
		result, err = h.executor.Execute(ctx, query, plan, limit)
	case h.cache != nil:
		var hit bool
		result, hit, err = h.cache.GetOrCompute(ctx, plan, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, query, plan, limit)
		})
		cacheStatus = "miss"
		if hit {
			cacheStatus = "hit"
		}
	default:
		result, err = h.executor.Execute(ctx, query, plan, limit)
	}
	if err != nil {
		h.observe("error", cacheStatus, start, 0)
		log.Error("search execution failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	// result may be shared with concurrent callers through the cache.
	resp := *result
	resp.Query = query
	resp.Lines = nil
	if topic := params.Get("topic"); topic != "" {
		resp.Lines = make([]string, 0, len(resp.Results))
		for _, res := range resp.Results {
			resp.Lines = append(resp.Lines, res.Format(topic, h.cfg.RunTag))
		}
	}

	resultType := "hit"
	if resp.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheStatus, start, resp.TotalHits)
	log.Info("search completed",
		"query", query,
		"terms", len(plan.Terms),
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"filtered", resp.Filtered,
		"cache", cacheStatus,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.SearchEvent{
			Query:       query,
			Terms:       plan.Terms,
			TotalHits:   resp.TotalHits,
			Returned:    len(resp.Results),
			Filtered:    resp.Filtered,
			LatencyMs:   float64(time.Since(start).Microseconds()) / 1000,
			CacheStatus: cacheStatus,
			Timestamp:   start.UTC(),
			RequestID:   middleware.GetRequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, &resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.HTTPStatusCode(apperrors.ErrCacheDisabled), apperrors.ErrCacheDisabled.Error())
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		err = fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observe(resultType, cacheStatus string, start time.Time, hits int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.Observe(float64(hits))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
