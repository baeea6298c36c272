// Package ingestion defines the document request accepted over HTTP and the
// event published to Kafka for every accepted change.
package ingestion

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion/htmltext"
)

const (
	FormatText = "text"
	FormatHTML = "html"
)

// DocumentRequest is the JSON body for creating or replacing a document.
// Date accepts YYYY-MM-DD or RFC 3339.
type DocumentRequest struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Text           string `json:"text"`
	Date           string `json:"date,omitempty"`
	Format         string `json:"format,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// DocumentResponse is returned once a change has been accepted.
type DocumentResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// DocumentEvent is the Kafka payload on the document events topic, keyed by
// document id. Delete events carry only Document.ID.
type DocumentEvent struct {
	Op        indexer.Op     `json:"op"`
	Document  index.Document `json:"document"`
	Timestamp time.Time      `json:"timestamp"`
}

// ParseDate parses the request date. The empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return t.UTC(), nil
}

// ToDocument converts a validated request into an index document, extracting
// visible text first when Format is html.
func (r *DocumentRequest) ToDocument() (index.Document, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return index.Document{}, err
	}
	doc := index.Document{
		ID:    r.ID,
		Title: r.Title,
		Text:  r.Text,
		Date:  date,
	}
	if strings.EqualFold(r.Format, FormatHTML) {
		text, title, err := htmltext.Extract(strings.NewReader(r.Text))
		if err != nil {
			return index.Document{}, fmt.Errorf("extracting html text: %w", err)
		}
		doc.Text = text
		if doc.Title == "" {
			doc.Title = title
		}
	}
	return doc, nil
}
