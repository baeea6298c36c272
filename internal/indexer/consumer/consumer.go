// Package consumer applies document events from Kafka to the in-memory index
// and, when a database is configured, records the indexing status.
package consumer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

// Applier is implemented by *indexer.Engine.
type Applier interface {
	Document(docID string) (index.Document, bool)
	Index(doc index.Document)
	Update(doc index.Document)
	DeleteByID(docID string)
}

// IndexConsumer drives the engine from the document events topic.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler applying each DocumentEvent to
// engine. db and m may be nil.
func HandleMessage(engine Applier, db *sql.DB, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	count := func(op indexer.Op, status string) {
		if m != nil {
			m.DocumentEventsTotal.WithLabelValues(string(op), status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			count("unknown", "poison")
			return err
		}
		doc := event.Document
		if doc.ID == "" {
			doc.ID = string(key)
		}
		if doc.ID == "" {
			count(event.Op, "poison")
			return fmt.Errorf("%w: event without document id", kafka.ErrPoison)
		}

		switch event.Op {
		case indexer.OpIndex:
			// Redelivered events must not add to existing frequencies.
			if _, exists := engine.Document(doc.ID); exists {
				engine.Update(doc)
			} else {
				engine.Index(doc)
			}
			updateDocStatus(ctx, db, doc.ID, "INDEXED", logger)
		case indexer.OpUpdate:
			engine.Update(doc)
			updateDocStatus(ctx, db, doc.ID, "INDEXED", logger)
		case indexer.OpDelete:
			engine.DeleteByID(doc.ID)
		default:
			count(event.Op, "poison")
			return fmt.Errorf("%w: unknown op %q for %s", kafka.ErrPoison, event.Op, doc.ID)
		}
		count(event.Op, "applied")
		logger.Debug("document event applied",
			"op", event.Op,
			"doc_id", doc.ID,
			"published_at", event.Timestamp,
		)
		return nil
	}
}

// updateDocStatus is skipped when db is nil.
func updateDocStatus(ctx context.Context, db *sql.DB, docID, status string, logger *slog.Logger) {
	if db == nil {
		return
	}
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET status = $1, indexed_at = NOW() WHERE id = $2 AND status <> 'DELETED'`,
		status, docID,
	)
	if err != nil {
		logger.Error("failed to update document status",
			"doc_id", docID,
			"status", status,
			"error", err,
		)
	}
}
