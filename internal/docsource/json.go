package docsource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ingestion"
)

// JSONFile reads documents from a JSON array or from JSON Lines, one
// {"id","title","text","date","format"} object per element.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (j *JSONFile) Load(ctx context.Context) ([]index.Document, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", j.path, err)
	}
	defer f.Close()
	reqs, err := decodeRequests(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", j.path, err)
	}
	docs := make([]index.Document, 0, len(reqs))
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if reqs[i].ID == "" {
			return nil, fmt.Errorf("%s: document %d has no id", j.path, i)
		}
		doc, err := reqs[i].ToDocument()
		if err != nil {
			return nil, fmt.Errorf("%s: document %s: %w", j.path, reqs[i].ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (j *JSONFile) Close() error {
	return nil
}

func decodeRequests(r *bufio.Reader) ([]ingestion.DocumentRequest, error) {
	first, err := peekNonSpace(r)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(r)
	if first == '[' {
		var reqs []ingestion.DocumentRequest
		if err := dec.Decode(&reqs); err != nil {
			return nil, err
		}
		return reqs, nil
	}
	var reqs []ingestion.DocumentRequest
	for {
		var req ingestion.DocumentRequest
		if err := dec.Decode(&req); err == io.EOF {
			return reqs, nil
		} else if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsAny(b, " \t\r\n") {
			return b[0], nil
		}
		if _, err := r.Discard(1); err != nil {
			return 0, err
		}
	}
}
