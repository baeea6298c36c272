// Package docsource loads a corpus from PostgreSQL, SQLite or a JSON file so
// the in-memory index can be rebuilt at start-up.
package docsource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/resilience"
)

const (
	KindNone     = "none"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindJSON     = "json"
)

// Source yields every live document of a corpus.
type Source interface {
	Load(ctx context.Context) ([]index.Document, error)
	Close() error
}

// Open returns the source selected by kind. path overrides the configured
// SQLite path and names the JSON file. KindNone yields a nil Source.
func Open(ctx context.Context, kind, path string, cfg *config.Config) (Source, error) {
	logger := slog.Default().With("component", "docsource", "kind", kind)
	switch kind {
	case KindNone, "":
		return nil, nil
	case KindPostgres:
		db, err := resilience.RetryValue(ctx, "postgres-connect", resilience.RetryConfig{MaxAttempts: 5},
			func() (*postgres.Client, error) { return postgres.New(ctx, cfg.Postgres) })
		if err != nil {
			return nil, err
		}
		logger.Info("connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return NewPostgres(db), nil
	case KindSQLite:
		if path == "" {
			path = cfg.SQLite.Path
		}
		src, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		logger.Info("opened", "path", path)
		return src, nil
	case KindJSON:
		if path == "" {
			return nil, fmt.Errorf("json source requires a path")
		}
		return NewJSONFile(path), nil
	default:
		return nil, fmt.Errorf("unknown document source %q", kind)
	}
}
