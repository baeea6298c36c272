// Package publisher records document changes in PostgreSQL and publishes a
// DocumentEvent for each one so searchers can apply it to their index.
package publisher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/google/uuid"
)

const statusPending = "PENDING"

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

type Publisher struct {
	store    DocumentStore
	producer EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

func New(store DocumentStore, producer EventPublisher) *Publisher {
	return &Publisher{
		store:    store,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new document and publishes an index event. A request
// without an id gets a random UUID. Repeating an idempotency key returns the
// original response without storing or publishing anything.
func (p *Publisher) Create(ctx context.Context, req *ingestion.DocumentRequest) (*ingestion.DocumentResponse, error) {
	if req.IdempotencyKey != "" {
		existing, err := p.store.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			p.logger.Info("duplicate document request",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.DocumentID,
			)
			return existing, nil
		}
	}
	doc, err := toDocument(req)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := p.store.Insert(ctx, doc, contentHash(doc), req.IdempotencyKey); err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	p.publish(ctx, indexer.OpIndex, doc)
	return &ingestion.DocumentResponse{DocumentID: doc.ID, Status: statusPending}, nil
}

// Replace overwrites the stored content of docID and publishes an update
// event.
func (p *Publisher) Replace(ctx context.Context, docID string, req *ingestion.DocumentRequest) (*ingestion.DocumentResponse, error) {
	req.ID = docID
	doc, err := toDocument(req)
	if err != nil {
		return nil, err
	}
	if err := p.store.Replace(ctx, doc, contentHash(doc)); err != nil {
		return nil, err
	}
	p.publish(ctx, indexer.OpUpdate, doc)
	return &ingestion.DocumentResponse{DocumentID: doc.ID, Status: statusPending}, nil
}

// Delete marks docID deleted and publishes a delete event.
func (p *Publisher) Delete(ctx context.Context, docID string) error {
	if err := p.store.MarkDeleted(ctx, docID); err != nil {
		return err
	}
	p.publish(ctx, indexer.OpDelete, index.Document{ID: docID})
	return nil
}

// publish logs instead of failing: the row is already committed and a
// searcher bootstrapping from PostgreSQL still picks it up.
func (p *Publisher) publish(ctx context.Context, op indexer.Op, doc index.Document) {
	event := ingestion.DocumentEvent{
		Op:        op,
		Document:  doc,
		Timestamp: p.now(),
	}
	if err := p.producer.Publish(ctx, doc.ID, event); err != nil {
		p.logger.Error("failed to publish document event, document stuck in PENDING",
			"op", op,
			"doc_id", doc.ID,
			"error", err,
		)
		return
	}
	p.logger.Info("document event published", "op", op, "doc_id", doc.ID)
}

func toDocument(req *ingestion.DocumentRequest) (index.Document, error) {
	doc, err := req.ToDocument()
	if err != nil {
		return index.Document{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, err.Error())
	}
	return doc, nil
}

func contentHash(doc index.Document) string {
	h := sha256.New()
	h.Write([]byte(doc.Title))
	h.Write([]byte{0})
	h.Write([]byte(doc.Text))
	h.Write([]byte{0})
	h.Write([]byte(doc.DateText()))
	return fmt.Sprintf("%x", h.Sum(nil))
}
