// Package ranker implements the vector-space scoring used by the query
// executor.
//
// A document's score is |q| * |d|, the product of the Euclidean norms of the
// query weight vector and the document's weight vector over the query
// positions. This is not cosine similarity: there is no dot product, and the
// formula is kept as is.
package ranker

import (
	"fmt"
	"math"
	"sort"
)

// Result is one ranked document.
type Result struct {
	DocumentID string  `json:"doc_id"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
}

// Format renders the result as a TREC run line:
// "<topic> Q0 <doc> <rank> <score> <tag>".
func (r Result) Format(topic, runTag string) string {
	return fmt.Sprintf("%s Q0 %s %d %f %s", topic, r.DocumentID, r.Rank, r.Score, runTag)
}

// TermStats is the corpus view QueryWeights needs.
type TermStats interface {
	TotalDocuments() int
	DocFreq(term string) int
}

// QueryWeights returns the weight of every query position: tf = 1/len(terms)
// times idf = log10(N/df). Unknown terms, and terms whose buckets are empty,
// weigh 0.
func QueryWeights(terms []string, stats TermStats) []float64 {
	weights := make([]float64, len(terms))
	if len(terms) == 0 {
		return weights
	}
	total := stats.TotalDocuments()
	tf := 1.0 / float64(len(terms))
	for i, term := range terms {
		df := stats.DocFreq(term)
		if df == 0 || total == 0 {
			continue
		}
		weights[i] = tf * math.Log10(float64(total)/float64(df))
	}
	return weights
}

// Magnitude is the Euclidean norm of v.
func Magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Score combines the query norm with a document vector.
func Score(queryNorm float64, docVector []float64) float64 {
	return queryNorm * Magnitude(docVector)
}

// Rank sorts results by descending score, breaking ties by document id, and
// assigns 1-based ranks. A positive limit truncates after sorting.
func Rank(results []Result, limit int) []Result {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
