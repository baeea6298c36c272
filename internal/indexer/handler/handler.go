// Package handler exposes the engine's indexing operations over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/google/uuid"
)

const (
	maxBodyBytes = 32 << 20
	maxBatch     = 10000
	defaultTerms = 100
	statusDone   = "INDEXED"
)

type Handler struct {
	engine *indexer.Engine
	logger *slog.Logger
}

func New(engine *indexer.Engine) *Handler {
	return &Handler{
		engine: engine,
		logger: slog.Default().With("component", "index-handler"),
	}
}

// Index handles POST /api/v1/documents.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var req ingestion.DocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, ok := h.toDocument(w, &req)
	if !ok {
		return
	}
	h.engine.Index(doc)
	logger.FromContext(r.Context()).Info("document indexed", "doc_id", doc.ID)
	h.writeJSON(w, http.StatusAccepted, ingestion.DocumentResponse{DocumentID: doc.ID, Status: statusDone})
}

// IndexBatch handles POST /api/v1/documents/batch. The batch is rejected as
// a whole if any document is invalid.
func (h *Handler) IndexBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []ingestion.DocumentRequest
	if !h.decode(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 || len(reqs) > maxBatch {
		h.writeError(w, http.StatusBadRequest, "batch must hold between 1 and 10000 documents")
		return
	}
	docs := make([]index.Document, 0, len(reqs))
	resp := make([]ingestion.DocumentResponse, 0, len(reqs))
	for i := range reqs {
		doc, ok := h.toDocument(w, &reqs[i])
		if !ok {
			return
		}
		docs = append(docs, doc)
		resp = append(resp, ingestion.DocumentResponse{DocumentID: doc.ID, Status: statusDone})
	}
	h.engine.IndexBatch(docs)
	logger.FromContext(r.Context()).Info("batch indexed", "count", len(docs))
	h.writeJSON(w, http.StatusAccepted, resp)
}

// Update handles PUT /api/v1/documents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ingestion.DocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ID != "" && req.ID != id {
		h.writeError(w, http.StatusBadRequest, "body id does not match path id")
		return
	}
	req.ID = id
	doc, ok := h.toDocument(w, &req)
	if !ok {
		return
	}
	h.engine.Update(doc)
	logger.FromContext(r.Context()).Info("document updated", "doc_id", id)
	h.writeJSON(w, http.StatusAccepted, ingestion.DocumentResponse{DocumentID: id, Status: statusDone})
}

// Delete handles DELETE /api/v1/documents/{id}. Unknown ids succeed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.engine.DeleteByID(id)
	logger.FromContext(r.Context()).Info("document deleted", "doc_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/v1/documents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.engine.Document(r.PathValue("id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// Stats handles GET /api/v1/index/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

// Terms handles GET /api/v1/index/terms?prefix=&limit=, listing stored terms
// with their idf and postings.
func (h *Handler) Terms(w http.ResponseWriter, r *http.Request) {
	limit := defaultTerms
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	h.writeJSON(w, http.StatusOK, h.engine.Terms(r.URL.Query().Get("prefix"), limit))
}

// Term handles GET /api/v1/index/terms/{term}. The path holds a stored,
// already normalized term.
func (h *Handler) Term(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.engine.Term(r.PathValue("term"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "term not found")
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) toDocument(w http.ResponseWriter, req *ingestion.DocumentRequest) (index.Document, bool) {
	if err := validator.ValidateDocument(req, false); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"id":     req.ID,
				"fields": verr.Fields,
			})
			return index.Document{}, false
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return index.Document{}, false
	}
	doc, err := req.ToDocument()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return index.Document{}, false
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	return doc, true
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
