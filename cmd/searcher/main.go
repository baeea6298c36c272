// Command searcher holds the in-memory TF-IDF index and serves search and
// document indexing over HTTP.
//
// At start-up the index is rebuilt from the configured bootstrap source. When
// Kafka is enabled the service also applies document events published by the
// ingestion service and announces every index change.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/docsource"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/consumer"
	indexhandler "github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/handler"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"bootstrap", cfg.Bootstrap.Source,
		"stemmer", cfg.Analysis.Stemmer,
		"tokenizer", cfg.Analysis.Tokenizer,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	a, err := analyzer.FromConfig(cfg.Analysis)
	if err != nil {
		slog.Error("failed to build analyzer", "error", err)
		os.Exit(1)
	}
	engine := indexer.NewEngine(a, m)
	checker := health.NewChecker()

	statusDB, closeSource, err := bootstrap(ctx, cfg, engine)
	if err != nil {
		slog.Error("failed to bootstrap index", "source", cfg.Bootstrap.Source, "error", err)
		os.Exit(1)
	}
	defer closeSource()
	if statusDB != nil {
		checker.Register("postgres", health.Ping(statusDB.PingContext, false))
	}

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, engine.Generation, cfg.Redis, m)
			engine.OnChange(func(indexer.Change) {
				ictx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := queryCache.Invalidate(ictx); err != nil {
					slog.Warn("cache invalidation after index change failed", "error", err)
				}
			})
			checker.Register("redis", health.Ping(redisClient.Ping, false))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		engine.OnChange(func(c indexer.Change) {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := producer.Publish(pctx, string(c.Op), c); err != nil {
				slog.Warn("failed to announce index change", "op", c.Op, "error", err)
			}
		})

		// An empty index has nothing to catch up from but the topic itself.
		fromStart := cfg.Bootstrap.Source == docsource.KindNone
		kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents,
			kafka.InstanceGroup(cfg.Kafka.ConsumerGroup), fromStart,
			consumer.HandleMessage(engine, statusDB, m))
		indexConsumer := consumer.New(kc)
		go func() {
			if err := indexConsumer.Start(ctx); err != nil {
				slog.Error("index consumer stopped", "error", err)
			}
		}()
		slog.Info("document event consumer started",
			"topic", cfg.Kafka.Topics.DocumentEvents,
			"from_start", fromStart,
		)
	}

	var tracker handler.Tracker
	var aggregator *analytics.Aggregator
	if cfg.Analytics.Enabled {
		aggregator = analytics.NewAggregator(cfg.Analytics.TopN)
		var sink analytics.Publisher = aggregator
		if cfg.Kafka.Enabled {
			eventProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
			defer eventProducer.Close()
			sink = eventProducer
			ec := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents,
				kafka.InstanceGroup(cfg.Kafka.ConsumerGroup), false,
				analytics.HandleEvent(aggregator))
			go func() {
				if err := ec.Start(ctx); err != nil {
					slog.Error("search event consumer stopped", "error", err)
				}
			}()
		}
		collector := analytics.NewCollector(sink, cfg.Analytics.BufferSize)
		collector.Start()
		defer collector.Close()
		tracker = collector
	}

	checker.Register("index", func(context.Context) health.ComponentHealth {
		stats := engine.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", stats.Documents, stats.Terms),
		}
	})

	exec := executor.New(engine, a)
	searchH := handler.New(exec, queryCache, tracker, m, cfg.Search)
	indexH := indexhandler.New(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", searchH.Search)
	mux.HandleFunc("POST /api/v1/documents", indexH.Index)
	mux.HandleFunc("POST /api/v1/documents/batch", indexH.IndexBatch)
	mux.HandleFunc("GET /api/v1/documents/{id}", indexH.Get)
	mux.HandleFunc("PUT /api/v1/documents/{id}", indexH.Update)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", indexH.Delete)
	mux.HandleFunc("GET /api/v1/index/stats", indexH.Stats)
	mux.HandleFunc("GET /api/v1/index/terms", indexH.Terms)
	mux.HandleFunc("GET /api/v1/index/terms/{term}", indexH.Term)
	mux.HandleFunc("GET /api/v1/cache/stats", searchH.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", searchH.CacheInvalidate)
	if aggregator != nil {
		mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if m != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)
	chain = middleware.CORS(cfg.Server.AllowedOrigins)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

// bootstrap loads the configured corpus into engine in a single batch. The
// returned handle is the PostgreSQL connection when that is the source, used
// to record indexing status.
func bootstrap(ctx context.Context, cfg *config.Config, engine *indexer.Engine) (*sql.DB, func(), error) {
	noop := func() {}
	src, err := docsource.Open(ctx, cfg.Bootstrap.Source, cfg.Bootstrap.Path, cfg)
	if err != nil {
		return nil, noop, err
	}
	if src == nil {
		slog.Info("starting with an empty index")
		return nil, noop, nil
	}
	closeSource := func() {
		if err := src.Close(); err != nil {
			slog.Warn("closing document source", "error", err)
		}
	}

	start := time.Now()
	docs, err := src.Load(ctx)
	if err != nil {
		closeSource()
		return nil, noop, err
	}
	engine.IndexBatch(docs)
	stats := engine.Stats()
	slog.Info("index bootstrapped",
		"source", cfg.Bootstrap.Source,
		"documents", stats.Documents,
		"terms", stats.Terms,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	var statusDB *sql.DB
	if s, ok := src.(*docsource.SQLSource); ok && cfg.Bootstrap.Source == docsource.KindPostgres {
		statusDB = s.DB()
	}
	return statusDB, closeSource, nil
}
