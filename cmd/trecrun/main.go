// Command trecrun indexes a corpus, runs a topic file against it and writes a
// TREC run file.
//
// Usage:
//
//	go run ./cmd/trecrun -source json -docs corpus.json -topics topics.yaml -out run.txt
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/docsource"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/trec"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults when empty)")
		source     = flag.String("source", "", "document source: json, sqlite or postgres (default: bootstrap.source)")
		docsPath   = flag.String("docs", "", "JSON file or SQLite database holding the corpus")
		topicsPath = flag.String("topics", "", "YAML topic file")
		outPath    = flag.String("out", "", "run file to write (default stdout)")
		limit      = flag.Int("limit", 0, "documents per topic (default search.maxResults)")
		runTag     = flag.String("tag", "", "run tag (default search.runTag)")
	)
	flag.Parse()

	if err := run(*configPath, *source, *docsPath, *topicsPath, *outPath, *limit, *runTag); err != nil {
		fmt.Fprintf(os.Stderr, "trecrun: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, source, docsPath, topicsPath, outPath string, limit int, runTag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, "text")
	if topicsPath == "" {
		return fmt.Errorf("-topics is required")
	}
	if source == "" {
		source = cfg.Bootstrap.Source
	}
	if docsPath == "" {
		docsPath = cfg.Bootstrap.Path
	}
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	if runTag == "" {
		runTag = cfg.Search.RunTag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topics, err := trec.LoadTopics(topicsPath)
	if err != nil {
		return err
	}

	a, err := analyzer.FromConfig(cfg.Analysis)
	if err != nil {
		return err
	}
	src, err := docsource.Open(ctx, source, docsPath, cfg)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("a document source is required, got %q", source)
	}
	defer src.Close()

	start := time.Now()
	docs, err := src.Load(ctx)
	if err != nil {
		return err
	}
	engine := indexer.NewEngine(a, nil)
	engine.IndexBatch(docs)
	stats := engine.Stats()
	slog.Info("corpus indexed",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	sum, err := trec.Run(ctx, executor.New(engine, a), topics, limit, runTag, out)
	if err != nil {
		return err
	}
	slog.Info("run written",
		"topics", sum.Topics,
		"empty_topics", sum.EmptyTopics,
		"lines", sum.Lines,
		"out", outPath,
	)
	return nil
}
