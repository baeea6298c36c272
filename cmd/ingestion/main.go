// Command ingestion starts the document ingestion HTTP service.
//
// Documents posted to /api/v1/documents are validated, stored in PostgreSQL
// and published as DocumentEvents for the searchers to index. Replacements
// and deletions go through PUT and DELETE on /api/v1/documents/{id}.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/resilience"
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
	slog.Info("starting ingestion service", "port", cfg.Ingestion.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := resilience.RetryValue(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5},
		func() (*postgres.Client, error) { return postgres.New(ctx, cfg.Postgres) })
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to migrate postgres", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.DocumentEvents)

	pub := publisher.New(publisher.NewPGStore(db), producer)
	h := handler.New(pub)

	checker := health.NewChecker()
	checker.Register("postgres", health.Ping(db.Ping, true))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/documents", h.Create)
	mux.HandleFunc("PUT /api/v1/documents/{id}", h.Replace)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", h.Delete)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Ingestion.WriteTimeout)(chain)
	if cfg.Metrics.Enabled {
		m := metrics.New(prometheus.DefaultRegisterer)
		mux.Handle("GET /metrics", metrics.Handler())
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)
	chain = middleware.CORS(cfg.Ingestion.AllowedOrigins)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Ingestion.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Ingestion.ReadTimeout,
		WriteTimeout: cfg.Ingestion.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ingestion.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
