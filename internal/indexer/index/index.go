// Package index holds the inverted index (term -> document -> posting) and the
// document table, and computes TF-IDF weights over them. Index is not
// synchronized; the indexing engine serializes access.
package index

import (
	"math"
	"sort"
)

type Index struct {
	terms   map[string]map[string]*Posting
	docs    map[string]*Document
	version uint64
}

func New() *Index {
	return &Index{
		terms: make(map[string]map[string]*Posting),
		docs:  make(map[string]*Document),
	}
}

// AddOccurrence counts one occurrence of term in docID.
func (ix *Index) AddOccurrence(term, docID string) {
	bucket, ok := ix.terms[term]
	if !ok {
		bucket = make(map[string]*Posting)
		ix.terms[term] = bucket
	}
	if p, ok := bucket[docID]; ok {
		p.Frequency++
		return
	}
	bucket[docID] = &Posting{DocID: docID, Frequency: 1}
}

// RemoveDocument drops docID's postings from every term. Term buckets are
// kept even when they become empty, and the document table is untouched.
func (ix *Index) RemoveDocument(docID string) {
	for _, bucket := range ix.terms {
		delete(bucket, docID)
	}
}

func (ix *Index) PutDocument(doc *Document) {
	ix.docs[doc.ID] = doc
}

func (ix *Index) DropDocument(docID string) {
	delete(ix.docs, docID)
}

func (ix *Index) Document(docID string) (*Document, bool) {
	doc, ok := ix.docs[docID]
	return doc, ok
}

// TotalDocuments is the corpus size N used for idf.
func (ix *Index) TotalDocuments() int {
	return len(ix.docs)
}

// TermCount includes terms whose buckets are empty.
func (ix *Index) TermCount() int {
	return len(ix.terms)
}

// DocFreq is the number of documents holding a posting for term.
func (ix *Index) DocFreq(term string) int {
	return len(ix.terms[term])
}

// IDF returns log10(N/df), or 0 when either is zero.
func (ix *Index) IDF(term string) float64 {
	return idf(ix.TotalDocuments(), ix.DocFreq(term))
}

// Postings returns the live postings of term keyed by document id. The map
// must not be modified.
func (ix *Index) Postings(term string) map[string]*Posting {
	return ix.terms[term]
}

// Version counts weight sweeps. Every engine mutation ends with one, so two
// reads seeing the same version saw the same index.
func (ix *Index) Version() uint64 {
	return ix.version
}

// Term copies term's entry with postings sorted by document id. A term whose
// bucket emptied is still found, with no postings.
func (ix *Index) Term(term string) (TermEntry, bool) {
	bucket, ok := ix.terms[term]
	if !ok {
		return TermEntry{}, false
	}
	return TermEntry{Term: term, IDF: ix.IDF(term), Postings: sortedPostings(bucket)}, true
}

// RecomputeWeights rewrites the TF-IDF of every posting from the current
// corpus statistics.
func (ix *Index) RecomputeWeights() {
	ix.version++
	total := ix.TotalDocuments()
	for _, bucket := range ix.terms {
		if len(bucket) == 0 {
			continue
		}
		termIDF := idf(total, len(bucket))
		for _, p := range bucket {
			doc, ok := ix.docs[p.DocID]
			if !ok || doc.Size == 0 {
				p.TFIDF = 0
				continue
			}
			tf := float64(p.Frequency) / float64(doc.Size)
			p.TFIDF = tf * termIDF
		}
	}
}

// Snapshot copies the index into term entries sorted by term, postings sorted
// by document id.
func (ix *Index) Snapshot() []TermEntry {
	total := ix.TotalDocuments()
	entries := make([]TermEntry, 0, len(ix.terms))
	for term, bucket := range ix.terms {
		entries = append(entries, TermEntry{
			Term:     term,
			IDF:      idf(total, len(bucket)),
			Postings: sortedPostings(bucket),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

func sortedPostings(bucket map[string]*Posting) PostingList {
	postings := make(PostingList, 0, len(bucket))
	for _, p := range bucket {
		postings = append(postings, *p)
	}
	sort.Slice(postings, func(i, j int) bool {
		return postings[i].DocID < postings[j].DocID
	})
	return postings
}

func idf(total, docFreq int) float64 {
	if total == 0 || docFreq == 0 {
		return 0
	}
	return math.Log10(float64(total) / float64(docFreq))
}
