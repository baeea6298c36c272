// Package stopwords provides the stopword sets consulted by the analysis
// pipeline.
package stopwords

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Set is a lookup set of terms to discard.
type Set map[string]struct{}

// Contains reports whether term is a stopword.
func (s Set) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// defaultWords deliberately omits "and", "or" and "not": the query parser
// needs them to survive normalization.
var defaultWords = []string{
	"a", "an", "are", "as", "at",
	"be", "by", "for", "from", "has", "he",
	"in", "is", "it", "its", "of", "on",
	"that", "the", "to", "was", "were",
	"will", "with", "this", "but", "they",
	"have", "had", "what", "when", "where",
	"who", "which", "their", "if", "each",
	"do", "no", "so", "can",
}

// Default returns a fresh copy of the built-in English stopword set.
func Default() Set {
	return FromWords(defaultWords)
}

// FromWords builds a Set, trimming whitespace and skipping empty entries.
func FromWords(words []string) Set {
	set := make(Set, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Load reads a stopword file. A file starting with '[' is parsed as a JSON
// array of strings; anything else is read as one word per line, with '#'
// starting a comment line.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stopwords file %s: %w", path, err)
	}
	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, "[") {
		var words []string
		if err := json.Unmarshal([]byte(content), &words); err != nil {
			return nil, fmt.Errorf("parsing stopwords file %s: %w", path, err)
		}
		return FromWords(words), nil
	}
	lines := strings.Split(content, "\n")
	words := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return FromWords(words), nil
}
