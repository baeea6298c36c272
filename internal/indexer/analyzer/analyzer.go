// Package analyzer implements the normalization pipeline that turns raw text
// into index terms. The same Analyzer must be used for documents and queries;
// any divergence silently breaks matching.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/stemmer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/stopwords"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

// Config fixes the pipeline behaviour. Nil collaborators fall back to
// tokenizer.Standard, stemmer.None and an empty stopword set.
type Config struct {
	Lowercase              bool
	StripAccentsBeforeStem bool
	StripAccentsAfterStem  bool
	Tokenizer              tokenizer.Tokenizer
	Stemmer                stemmer.Stemmer
	Stopwords              stopwords.Set
}

// Analyzer is immutable after New and safe for concurrent use as long as its
// collaborators are.
type Analyzer struct {
	cfg Config
}

func New(cfg Config) *Analyzer {
	if cfg.Tokenizer == nil {
		cfg.Tokenizer = tokenizer.Standard{}
	}
	if cfg.Stemmer == nil {
		cfg.Stemmer = stemmer.None{}
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = stopwords.Set{}
	}
	return &Analyzer{cfg: cfg}
}

// FromConfig builds an Analyzer from the application configuration.
func FromConfig(cfg config.AnalysisConfig) (*Analyzer, error) {
	stem, err := stemmer.New(cfg.Stemmer, cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("building stemmer: %w", err)
	}
	var tok tokenizer.Tokenizer = tokenizer.Standard{}
	if cfg.Tokenizer == "sego" {
		tok = tokenizer.NewSegmenter(cfg.Dictionary)
	}
	stops := stopwords.Default()
	if cfg.StopwordsFile != "" {
		stops, err = stopwords.Load(cfg.StopwordsFile)
		if err != nil {
			return nil, err
		}
	}
	return New(Config{
		Lowercase:              cfg.Lowercase,
		StripAccentsBeforeStem: cfg.StripAccentsBeforeStem,
		StripAccentsAfterStem:  cfg.StripAccentsAfterStem,
		Tokenizer:              tok,
		Stemmer:                stem,
		Stopwords:              stops,
	}), nil
}

// Normalize returns the terms of text in order. Empty text yields an empty
// slice.
func (a *Analyzer) Normalize(text string) []string {
	if a.cfg.Lowercase {
		text = strings.ToLower(text)
	}
	if a.cfg.StripAccentsBeforeStem {
		text = tokenizer.StripAccents(text)
	}
	raw := a.cfg.Tokenizer.Tokenize(text)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = a.cfg.Stemmer.Stem(token)
		if a.cfg.StripAccentsAfterStem {
			token = tokenizer.StripAccents(token)
		}
		if a.cfg.Stopwords.Contains(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}
