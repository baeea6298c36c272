package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/ranker"
)

type SearchResult struct {
	Query     string          `json:"query"`
	Terms     []string        `json:"terms"`
	TotalHits int             `json:"total_hits"`
	Filtered  bool            `json:"filtered"`
	Results   []ranker.Result `json:"results"`
	Lines     []string        `json:"lines,omitempty"`
	// Generation is the index generation the ranking was computed against.
	Generation uint64 `json:"generation"`
}

// IndexReader gives shared access to the index; indexer.Engine implements it.
type IndexReader interface {
	Read(fn func(ix *index.Index))
}

type Executor struct {
	reader   IndexReader
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// New creates an Executor. a must be the analyzer the index was built with.
func New(reader IndexReader, a *analyzer.Analyzer) *Executor {
	return &Executor{
		reader:   reader,
		analyzer: a,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Plan normalizes query and extracts its boolean constraints.
func (e *Executor) Plan(query string) *parser.QueryPlan {
	return parser.Parse(e.analyzer.Normalize(query))
}

// Search plans and executes query. A positive limit truncates the ranking.
func (e *Executor) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	return e.Execute(ctx, query, e.Plan(query), limit)
}

// candidate is a document's weight vector over the query positions. matched
// records posting presence separately, since a posting of a term present in
// every document has weight 0 yet still matches.
type candidate struct {
	weights []float64
	matched []bool
}

func (e *Executor) Execute(ctx context.Context, query string, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search cancelled: %w", err)
	}
	result := &SearchResult{
		Query:   query,
		Terms:   plan.Terms,
		Results: []ranker.Result{},
	}
	n := len(plan.Terms)
	if n == 0 {
		return result, nil
	}

	var queryNorm float64
	candidates := make(map[string]*candidate)
	e.reader.Read(func(ix *index.Index) {
		result.Generation = ix.Version()
		queryNorm = ranker.Magnitude(ranker.QueryWeights(plan.Terms, ix))
		for i, term := range plan.Terms {
			for docID, p := range ix.Postings(term) {
				c, ok := candidates[docID]
				if !ok {
					c = &candidate{
						weights: make([]float64, n),
						matched: make([]bool, n),
					}
					candidates[docID] = c
				}
				c.weights[i] = p.TFIDF
				c.matched[i] = true
			}
		}
	})

	result.Filtered = applyConstraints(plan, candidates)

	scored := make([]ranker.Result, 0, len(candidates))
	for docID, c := range candidates {
		scored = append(scored, ranker.Result{
			DocumentID: docID,
			Score:      ranker.Score(queryNorm, c.weights),
		})
	}
	result.TotalHits = len(scored)
	result.Results = ranker.Rank(scored, limit)

	e.logger.Debug("query executed",
		"query", query,
		"terms", plan.Terms,
		"and", len(plan.And),
		"or", len(plan.Or),
		"not", len(plan.Not),
		"filtered", result.Filtered,
		"hits", result.TotalHits,
	)
	return result, nil
}

// applyConstraints drops candidates violating the plan's AND/OR/NOT
// constraints. When every candidate would be dropped nothing is removed and
// it returns false.
func applyConstraints(plan *parser.QueryPlan, candidates map[string]*candidate) bool {
	if !plan.HasConstraints() || len(candidates) == 0 {
		return false
	}
	removed := make([]string, 0)
	for docID, c := range candidates {
		if violates(plan, c) {
			removed = append(removed, docID)
		}
	}
	if len(removed) == len(candidates) {
		return false
	}
	for _, docID := range removed {
		delete(candidates, docID)
	}
	return len(removed) > 0
}

// violates tests posting presence, not a non-zero weight: a term found in
// every document has idf 0, and a weight test would treat it as absent.
func violates(plan *parser.QueryPlan, c *candidate) bool {
	// matched treats operands missing from plan.Terms as absent constraints.
	matched := func(term string) (bool, bool) {
		pos := plan.Position(term)
		if pos < 0 {
			return false, false
		}
		return c.matched[pos], true
	}
	for _, pair := range plan.And {
		l, lok := matched(pair.Left)
		r, rok := matched(pair.Right)
		if lok && rok && (!l || !r) {
			return true
		}
	}
	for _, pair := range plan.Or {
		l, lok := matched(pair.Left)
		r, rok := matched(pair.Right)
		if lok && rok && !l && !r {
			return true
		}
	}
	for _, term := range plan.Not {
		if m, ok := matched(term); ok && m {
			return true
		}
	}
	return false
}
