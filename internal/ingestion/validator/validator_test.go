package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name      string
		req       ingestion.DocumentRequest
		requireID bool
		fields    []string
	}{
		{"valid", ingestion.DocumentRequest{ID: "d1", Title: "t", Text: "body"}, true, nil},
		{"id optional", ingestion.DocumentRequest{Text: "body"}, false, nil},
		{"id required", ingestion.DocumentRequest{Text: "body"}, true, []string{"id"}},
		{"id with slash", ingestion.DocumentRequest{ID: "a/b", Text: "body"}, false, []string{"id"}},
		{"empty content", ingestion.DocumentRequest{ID: "d1", Title: "  "}, true, []string{"text"}},
		{"bad date", ingestion.DocumentRequest{ID: "d1", Text: "x", Date: "yesterday"}, true, []string{"date"}},
		{"bad format", ingestion.DocumentRequest{ID: "d1", Text: "x", Format: "pdf"}, true, []string{"format"}},
		{"long key", ingestion.DocumentRequest{ID: "d1", Text: "x", IdempotencyKey: strings.Repeat("k", 256)}, true, []string{"idempotency_key"}},
		{"several", ingestion.DocumentRequest{Format: "xml", Date: "never"}, true, []string{"id", "text", "date", "format"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(&tt.req, tt.requireID)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
		})
	}
}
