// Package handler serves the ingestion API: documents are validated, stored
// and announced on the document events topic.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
)

const maxBodyBytes = 2 << 20

// DocumentPublisher is implemented by *publisher.Publisher.
type DocumentPublisher interface {
	Create(ctx context.Context, req *ingestion.DocumentRequest) (*ingestion.DocumentResponse, error)
	Replace(ctx context.Context, docID string, req *ingestion.DocumentRequest) (*ingestion.DocumentResponse, error)
	Delete(ctx context.Context, docID string) error
}

type Handler struct {
	publisher DocumentPublisher
	logger    *slog.Logger
}

func New(pub DocumentPublisher) *Handler {
	return &Handler{
		publisher: pub,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Create handles POST /api/v1/documents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	resp, err := h.publisher.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}
	logger.FromContext(r.Context()).Info("document accepted", "doc_id", resp.DocumentID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

// Replace handles PUT /api/v1/documents/{id}.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.ID != "" && req.ID != id {
		h.writeError(w, http.StatusBadRequest, "body id does not match path id")
		return
	}
	resp, err := h.publisher.Replace(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "replace", err)
		return
	}
	logger.FromContext(r.Context()).Info("document replaced", "doc_id", resp.DocumentID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

// Delete handles DELETE /api/v1/documents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.publisher.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete", err)
		return
	}
	logger.FromContext(r.Context()).Info("document deleted", "doc_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*ingestion.DocumentRequest, bool) {
	var req ingestion.DocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if err := validator.ValidateDocument(&req, false); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return nil, false
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperrors.HTTPStatusCode(err)
	logger.FromContext(r.Context()).Error("document request failed",
		"op", op,
		"error", err,
		"status_code", status,
	)
	msg := http.StatusText(status)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Error()
	}
	h.writeError(w, status, msg)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
