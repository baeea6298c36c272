package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
)

// DocumentStore is the durable record of accepted documents.
type DocumentStore interface {
	FindByIdempotencyKey(ctx context.Context, key string) (*ingestion.DocumentResponse, error)
	Insert(ctx context.Context, doc index.Document, contentHash, idempotencyKey string) error
	Replace(ctx context.Context, doc index.Document, contentHash string) error
	MarkDeleted(ctx context.Context, docID string) error
}

// PGStore keeps documents in the PostgreSQL documents table.
type PGStore struct {
	db *postgres.Client
}

func NewPGStore(db *postgres.Client) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) FindByIdempotencyKey(ctx context.Context, key string) (*ingestion.DocumentResponse, error) {
	var resp ingestion.DocumentResponse
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT id, status FROM documents WHERE idempotency_key = $1`, key,
	).Scan(&resp.DocumentID, &resp.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

func (s *PGStore) Insert(ctx context.Context, doc index.Document, contentHash, idempotencyKey string) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx,
			`INSERT INTO documents (id, title, body, published_at, content_hash, idempotency_key, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
			ON CONFLICT DO NOTHING
			RETURNING id`,
			doc.ID, doc.Title, doc.Text, nullableTime(doc), contentHash, nullableString(idempotencyKey),
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.Newf(apperrors.ErrIdempotencyConflict, http.StatusConflict,
				"document %s or its idempotency key already exists", doc.ID)
		}
		return err
	})
}

func (s *PGStore) Replace(ctx context.Context, doc index.Document, contentHash string) error {
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE documents
		SET title = $2, body = $3, published_at = $4, content_hash = $5,
			status = 'PENDING', updated_at = NOW()
		WHERE id = $1 AND status <> 'DELETED'`,
		doc.ID, doc.Title, doc.Text, nullableTime(doc), contentHash,
	)
	if err != nil {
		return fmt.Errorf("updating document %s: %w", doc.ID, err)
	}
	return requireRow(res, doc.ID)
}

func (s *PGStore) MarkDeleted(ctx context.Context, docID string) error {
	res, err := s.db.DB.ExecContext(ctx,
		`UPDATE documents SET status = 'DELETED', updated_at = NOW()
		WHERE id = $1 AND status <> 'DELETED'`, docID,
	)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", docID, err)
	}
	return requireRow(res, docID)
}

func requireRow(res sql.Result, docID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "document %s", docID)
	}
	return nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableTime(doc index.Document) sql.NullTime {
	if doc.Date.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: doc.Date, Valid: true}
}
