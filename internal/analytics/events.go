// Package analytics keeps a log of executed searches: what was asked, how
// many documents matched and how long it took. The searcher tracks one
// SearchEvent per request; the Aggregator folds them into AggregatedStats.
package analytics

import "time"

type SearchEvent struct {
	Query       string    `json:"query"`
	Terms       []string  `json:"terms"`
	TotalHits   int       `json:"total_hits"`
	Returned    int       `json:"returned"`
	Filtered    bool      `json:"filtered"`
	LatencyMs   float64   `json:"latency_ms"`
	CacheStatus string    `json:"cache_status"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}

// Key groups queries that normalize to the same terms.
func (e SearchEvent) Key() string {
	if len(e.Terms) == 0 {
		return e.Query
	}
	key := e.Terms[0]
	for _, t := range e.Terms[1:] {
		key += " " + t
	}
	return key
}
