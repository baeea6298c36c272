package indexer

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

type Op string

const (
	OpIndex  Op = "index"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one completed mutation of the index.
type Change struct {
	Op          Op        `json:"op"`
	DocumentIDs []string  `json:"document_ids"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	At          time.Time `json:"at"`
}

type Stats struct {
	Documents  int   `json:"documents"`
	Terms      int   `json:"terms"`
	Recomputes int64 `json:"recomputes"`
}

// Engine owns the inverted index and serializes access to it. Mutations hold
// the write lock until the TF-IDF sweep is finished, so readers never observe
// stale weights.
type Engine struct {
	mu         sync.RWMutex
	idx        *index.Index
	analyzer   *analyzer.Analyzer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	recomputes atomic.Int64

	listenersMu sync.RWMutex
	listeners   []func(Change)
}

// NewEngine creates an empty engine. m may be nil.
func NewEngine(a *analyzer.Analyzer, m *metrics.Metrics) *Engine {
	return &Engine{
		idx:      index.New(),
		analyzer: a,
		metrics:  m,
		logger:   slog.Default().With("component", "indexer"),
	}
}

// Analyzer returns the pipeline documents are normalized with.
func (e *Engine) Analyzer() *analyzer.Analyzer {
	return e.analyzer
}

// OnChange registers fn to be called after every mutation, outside the lock.
func (e *Engine) OnChange(fn func(Change)) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Index adds one document. Indexing an id again without deleting it first
// accumulates term frequencies.
func (e *Engine) Index(doc index.Document) {
	e.IndexBatch([]index.Document{doc})
}

// IndexBatch adds documents and recomputes weights once for the whole batch.
func (e *Engine) IndexBatch(docs []index.Document) {
	if len(docs) == 0 {
		return
	}
	ids := make([]string, 0, len(docs))
	e.mu.Lock()
	tokens := 0
	for _, doc := range docs {
		tokens += e.process(doc)
		ids = append(ids, doc.ID)
	}
	e.recompute()
	change := e.change(OpIndex, ids)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(len(docs)))
	}
	e.logger.Info("documents indexed",
		"count", len(docs),
		"tokens", tokens,
		"total_docs", change.Documents,
		"terms", change.Terms,
	)
	e.notify(change)
}

// Update replaces the postings of doc.ID with those of doc's current content.
func (e *Engine) Update(doc index.Document) {
	e.mu.Lock()
	e.idx.RemoveDocument(doc.ID)
	e.idx.DropDocument(doc.ID)
	tokens := e.process(doc)
	e.recompute()
	e.recompute()
	change := e.change(OpUpdate, []string{doc.ID})
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.DocsDeletedTotal.Inc()
		e.metrics.DocsIndexedTotal.Inc()
	}
	e.logger.Info("document updated", "doc_id", doc.ID, "tokens", tokens)
	e.notify(change)
}

// Delete removes the document's postings and its record. Unknown ids are a
// no-op apart from the weight sweep.
func (e *Engine) Delete(doc index.Document) {
	e.DeleteByID(doc.ID)
}

func (e *Engine) DeleteByID(docID string) {
	e.mu.Lock()
	_, existed := e.idx.Document(docID)
	e.idx.RemoveDocument(docID)
	e.idx.DropDocument(docID)
	e.recompute()
	change := e.change(OpDelete, []string{docID})
	e.mu.Unlock()

	if e.metrics != nil && existed {
		e.metrics.DocsDeletedTotal.Inc()
	}
	e.logger.Info("document deleted", "doc_id", docID, "existed", existed)
	e.notify(change)
}

// Read runs fn with shared access to the index. fn must not retain the index
// or any posting after returning.
func (e *Engine) Read(fn func(ix *index.Index)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.idx)
}

// Document returns a copy of the stored document.
func (e *Engine) Document(docID string) (index.Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.idx.Document(docID)
	if !ok {
		return index.Document{}, false
	}
	return *doc, true
}

// Generation identifies the current state of the index. It changes with
// every mutation.
func (e *Engine) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Version()
}

// Term returns the stored entry of an already normalized term.
func (e *Engine) Term(term string) (index.TermEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Term(term)
}

// Terms lists entries whose term starts with prefix in term order. A
// non-positive limit returns all of them.
func (e *Engine) Terms(prefix string, limit int) []index.TermEntry {
	e.mu.RLock()
	snapshot := e.idx.Snapshot()
	e.mu.RUnlock()

	entries := make([]index.TermEntry, 0)
	for _, entry := range snapshot {
		if !strings.HasPrefix(entry.Term, prefix) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents:  e.idx.TotalDocuments(),
		Terms:      e.idx.TermCount(),
		Recomputes: e.recomputes.Load(),
	}
}

// process normalizes title, text and date in that order and records every
// term occurrence. It returns the token count.
func (e *Engine) process(doc index.Document) int {
	terms := e.analyzer.Normalize(doc.Title)
	terms = append(terms, e.analyzer.Normalize(doc.Text)...)
	terms = append(terms, e.analyzer.Normalize(doc.DateText())...)
	doc.Size = len(terms)
	for _, term := range terms {
		e.idx.AddOccurrence(term, doc.ID)
	}
	e.idx.PutDocument(&doc)
	e.logger.Debug("document processed", "doc_id", doc.ID, "size", doc.Size)
	return doc.Size
}

func (e *Engine) recompute() {
	start := time.Now()
	e.idx.RecomputeWeights()
	e.recomputes.Add(1)
	if e.metrics != nil {
		e.metrics.WeightRecomputeSeconds.Observe(time.Since(start).Seconds())
		e.metrics.IndexDocuments.Set(float64(e.idx.TotalDocuments()))
		e.metrics.IndexTerms.Set(float64(e.idx.TermCount()))
	}
}

func (e *Engine) change(op Op, ids []string) Change {
	return Change{
		Op:          op,
		DocumentIDs: ids,
		Documents:   e.idx.TotalDocuments(),
		Terms:       e.idx.TermCount(),
		At:          time.Now().UTC(),
	}
}

func (e *Engine) notify(change Change) {
	e.listenersMu.RLock()
	listeners := make([]func(Change), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(change)
	}
}
