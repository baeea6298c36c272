package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInvalidInput, http.StatusTeapot, "short"), http.StatusTeapot},
		{"wrapped not found", fmt.Errorf("loading: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"conflict", ErrIdempotencyConflict, http.StatusConflict},
		{"invalid", ErrInvalidInput, http.StatusBadRequest},
		{"cache disabled", ErrCacheDisabled, http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrDocumentNotFound, http.StatusNotFound, "document %s", "d1")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Error("AppError does not unwrap to its sentinel")
	}
	if got := err.Error(); got != "document not found: document d1" {
		t.Errorf("Error() = %q", got)
	}
}
