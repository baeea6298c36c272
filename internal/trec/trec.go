// Package trec runs a set of topics against the executor and writes the
// rankings in TREC run format for evaluation with trec_eval.
package trec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"gopkg.in/yaml.v3"
)

// Topic is one information need.
type Topic struct {
	ID    string `yaml:"id"`
	Query string `yaml:"query"`
}

// LoadTopics reads a YAML list of topics. Every topic needs an id, and ids
// must be unique.
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics %s: %w", path, err)
	}
	var topics []Topic
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parsing topics %s: %w", path, err)
	}
	seen := make(map[string]bool, len(topics))
	for i, t := range topics {
		id := strings.TrimSpace(t.ID)
		if id == "" || strings.ContainsAny(id, " \t") {
			return nil, fmt.Errorf("topic %d: id must be a non-empty single token", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("topic %s: duplicate id", id)
		}
		seen[id] = true
		topics[i].ID = id
	}
	return topics, nil
}

// Searcher is implemented by *executor.Executor.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
}

// Summary counts what Run wrote.
type Summary struct {
	Topics      int
	EmptyTopics int
	Lines       int
}

// Run searches every topic in order and writes at most limit lines per topic
// to w. A limit <= 0 writes the full ranking.
func Run(ctx context.Context, s Searcher, topics []Topic, limit int, runTag string, w io.Writer) (Summary, error) {
	logger := slog.Default().With("component", "trec-run", "run_tag", runTag)
	bw := bufio.NewWriter(w)
	var sum Summary
	for _, topic := range topics {
		res, err := s.Search(ctx, topic.Query, limit)
		if err != nil {
			return sum, fmt.Errorf("topic %s: %w", topic.ID, err)
		}
		sum.Topics++
		if len(res.Results) == 0 {
			sum.EmptyTopics++
			logger.Warn("topic returned no documents", "topic", topic.ID, "query", topic.Query)
		}
		for _, r := range res.Results {
			if _, err := fmt.Fprintln(bw, r.Format(topic.ID, runTag)); err != nil {
				return sum, fmt.Errorf("writing run: %w", err)
			}
			sum.Lines++
		}
		logger.Debug("topic done", "topic", topic.ID, "hits", res.TotalHits, "written", len(res.Results))
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("writing run: %w", err)
	}
	return sum, nil
}
