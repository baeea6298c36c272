// Package validator checks document requests and reports every failing field
// at once.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
)

const (
	maxIDLength    = 255
	maxTitleLength = 1024
	maxTextLength  = 1048576
	maxKeyLength   = 255
)

// ValidationError maps field names to failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateDocument checks a create or replace request. requireID is set when
// the caller cannot assign an id itself.
func ValidateDocument(req *ingestion.DocumentRequest, requireID bool) error {
	errs := make(map[string]string)

	id := strings.TrimSpace(req.ID)
	switch {
	case id == "" && requireID:
		errs["id"] = "id is required"
	case len(id) > maxIDLength:
		errs["id"] = fmt.Sprintf("id must be at most %d characters", maxIDLength)
	case strings.ContainsAny(id, "/ \t\n"):
		errs["id"] = "id must not contain slashes or whitespace"
	}

	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Text) == "" {
		errs["text"] = "title or text is required"
	}
	if len(req.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if len(req.Text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d characters", maxTextLength)
	}
	if _, err := ingestion.ParseDate(req.Date); err != nil {
		errs["date"] = err.Error()
	}
	switch strings.ToLower(req.Format) {
	case "", ingestion.FormatText, ingestion.FormatHTML:
	default:
		errs["format"] = "format must be text or html"
	}
	if len(req.IdempotencyKey) > maxKeyLength {
		errs["idempotency_key"] = fmt.Sprintf("idempotency key must be at most %d characters", maxKeyLength)
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
