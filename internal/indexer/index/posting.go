package index

import "time"

// Posting records how often a term occurs in one document and the derived
// TF-IDF weight. A stored posting always has Frequency >= 1.
type Posting struct {
	DocID     string  `json:"doc_id"`
	Frequency int     `json:"frequency"`
	TFIDF     float64 `json:"tf_idf"`
}

type PostingList []Posting

type TermEntry struct {
	Term     string      `json:"term"`
	IDF      float64     `json:"idf"`
	Postings PostingList `json:"postings"`
}

// Document is a unit of the corpus. Size is the number of normalized tokens of
// Title, Text and Date and is set by the indexing engine.
type Document struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Text  string    `json:"text"`
	Date  time.Time `json:"date"`
	Size  int       `json:"size"`
}

// DateText is the textual form of Date fed to the analyzer. The zero time
// contributes nothing.
func (d *Document) DateText() string {
	if d.Date.IsZero() {
		return ""
	}
	return d.Date.Format(time.DateOnly)
}
