package docsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
	_ "github.com/mattn/go-sqlite3"
)

const selectDocuments = `SELECT id, title, body, published_at FROM documents
WHERE status IS NULL OR status <> 'DELETED'
ORDER BY id`

// SQLiteSchema creates a documents table compatible with the PostgreSQL one.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	published_at TEXT,
	status       TEXT NOT NULL DEFAULT 'INDEXED'
)`

var dateLayouts = []string{
	time.RFC3339Nano,
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05.999999999-07:00",
}

// SQLSource reads the documents table through database/sql.
type SQLSource struct {
	db    *sql.DB
	close func() error
}

func NewPostgres(client *postgres.Client) *SQLSource {
	return &SQLSource{db: client.DB, close: client.Close}
}

// OpenSQLite opens the SQLite database at path and makes sure the documents
// table exists.
func OpenSQLite(path string) (*SQLSource, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite source requires a path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(SQLiteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing sqlite schema: %w", err)
	}
	return &SQLSource{db: db, close: db.Close}, nil
}

// DB exposes the handle, for seeding and status updates.
func (s *SQLSource) DB() *sql.DB {
	return s.db
}

func (s *SQLSource) Load(ctx context.Context) ([]index.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []index.Document
	for rows.Next() {
		var (
			doc  index.Document
			date sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Text, &date); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if date.Valid {
			if doc.Date, err = parseDate(date.String); err != nil {
				return nil, fmt.Errorf("document %s: %w", doc.ID, err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (s *SQLSource) Close() error {
	return s.close()
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
