package executor

import (
	"context"
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

func newFixture(t *testing.T, docs ...index.Document) (*indexer.Engine, *Executor) {
	t.Helper()
	a, err := analyzer.FromConfig(config.Default().Analysis)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	engine := indexer.NewEngine(a, nil)
	engine.IndexBatch(docs)
	return engine, New(engine, a)
}

func catDog(t *testing.T, extra ...index.Document) *Executor {
	t.Helper()
	docs := append([]index.Document{
		{ID: "doc1", Text: "cat dog"},
		{ID: "doc2", Text: "cat"},
	}, extra...)
	_, exec := newFixture(t, docs...)
	return exec
}

func ids(r *SearchResult) []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.DocumentID)
	}
	return out
}

func search(t *testing.T, exec *Executor, query string) *SearchResult {
	t.Helper()
	res, err := exec.Search(context.Background(), query, 0)
	if err != nil {
		t.Fatalf("Search(%q): %v", query, err)
	}
	return res
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(got))
	for _, g := range got {
		seen[g] = true
	}
	for _, w := range want {
		if !seen[w] {
			return false
		}
	}
	return true
}

func TestBooleanQueries(t *testing.T) {
	tests := []struct {
		name     string
		extra    []index.Document
		query    string
		want     []string
		filtered bool
	}{
		{"and keeps docs with both", nil, "dog and cat", []string{"doc1"}, true},
		{"or with unknown operand", []index.Document{{ID: "doc3", Text: "bird"}}, "fish or cat", []string{"doc1", "doc2"}, false},
		{"not excludes", nil, "cat not dog", []string{"doc2"}, true},
		{"leading operator is a term", nil, "and cat dog", []string{"doc1", "doc2"}, false},
		{"trailing operator is a term", nil, "cat dog not", []string{"doc1", "doc2"}, false},
		{"all excluded falls back", nil, "cat and fish", []string{"doc1", "doc2"}, false},
		{"plain query", nil, "dog", []string{"doc1"}, false},
		{"operators are case normalized", nil, "DOG AND CAT", []string{"doc1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := search(t, catDog(t, tt.extra...), tt.query)
			if got := ids(res); !sameSet(got, tt.want) {
				t.Errorf("results = %v, want %v", got, tt.want)
			}
			if res.Filtered != tt.filtered {
				t.Errorf("Filtered = %v, want %v", res.Filtered, tt.filtered)
			}
			if res.TotalHits != len(tt.want) {
				t.Errorf("TotalHits = %d, want %d", res.TotalHits, len(tt.want))
			}
		})
	}
}

func TestScoreIsProductOfNorms(t *testing.T) {
	exec := catDog(t)
	log2 := math.Log10(2)

	res := search(t, exec, "dog and cat")
	// query [0.5*log2, 0], doc1 [0.5*log2, 0]
	want := 0.25 * log2 * log2
	if len(res.Results) != 1 || math.Abs(res.Results[0].Score-want) > 1e-12 {
		t.Fatalf("results = %+v, want doc1 with score %v", res.Results, want)
	}
	if res.Results[0].Rank != 1 {
		t.Errorf("Rank = %d, want 1", res.Results[0].Rank)
	}

	// cat has idf 0, so every cat-only match scores 0
	res = search(t, exec, "cat")
	for _, r := range res.Results {
		if r.Score != 0 {
			t.Errorf("%s scored %v for a zero-idf term", r.DocumentID, r.Score)
		}
	}
}

func TestRankingOrder(t *testing.T) {
	_, exec := newFixture(t,
		index.Document{ID: "a", Text: "apple banana cherry"},
		index.Document{ID: "b", Text: "apple apple"},
		index.Document{ID: "c", Text: "durian"},
		index.Document{ID: "d", Text: "elderberry"},
	)
	res := search(t, exec, "apple")
	if got := ids(res); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("order = %v, want [b a]", got)
	}
	for i, r := range res.Results {
		if r.Rank != i+1 {
			t.Errorf("result %d rank = %d", i, r.Rank)
		}
	}

	limited, err := exec.Search(context.Background(), "apple", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(limited.Results) != 1 || limited.TotalHits != 2 {
		t.Errorf("limited = %+v", limited)
	}
}

func TestIndexThenDeleteLeavesNoTrace(t *testing.T) {
	engine, exec := newFixture(t, index.Document{ID: "keep", Text: "ordinary words"})
	engine.Index(index.Document{ID: "gone", Title: "Zebra", Text: "quagga okapi"})
	if got := ids(search(t, exec, "zebra")); !sameSet(got, []string{"gone"}) {
		t.Fatalf("before delete = %v", got)
	}
	engine.Delete(index.Document{ID: "gone"})
	for _, q := range []string{"zebra", "quagga", "okapi", "zebra or quagga"} {
		for _, id := range ids(search(t, exec, q)) {
			if id == "gone" {
				t.Errorf("query %q still returns deleted document", q)
			}
		}
	}
}

func TestEmptyQueries(t *testing.T) {
	exec := catDog(t)
	for _, q := range []string{"", "   ", "the", "!!!"} {
		res := search(t, exec, q)
		if len(res.Results) != 0 || res.Results == nil {
			t.Errorf("query %q: results = %#v, want empty non-nil slice", q, res.Results)
		}
	}
	_, empty := newFixture(t)
	if res := search(t, empty, "cat"); len(res.Results) != 0 {
		t.Errorf("empty index returned %v", res.Results)
	}
}

func TestCancelledContext(t *testing.T) {
	exec := catDog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exec.Search(ctx, "cat", 0); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
