// Package stemmer reduces tokens to a root form. Snowball covers the languages
// supported by github.com/kljensen/snowball; Suffix is a small rule-based
// fallback that needs no language data.
package stemmer

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// Stemmer maps a token to its stem.
type Stemmer interface {
	Stem(token string) string
}

// New returns the stemmer registered under name ("snowball", "suffix" or
// "none"). language is only used by snowball.
func New(name, language string) (Stemmer, error) {
	switch name {
	case "snowball":
		return NewSnowball(language)
	case "suffix":
		return Suffix{}, nil
	case "none", "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q", name)
	}
}

// Snowball stems with the snowball algorithm for one language.
type Snowball struct {
	language string
}

// NewSnowball validates language against the snowball implementation.
func NewSnowball(language string) (*Snowball, error) {
	language = strings.ToLower(language)
	if _, err := snowball.Stem("test", language, true); err != nil {
		return nil, fmt.Errorf("snowball language %q: %w", language, err)
	}
	return &Snowball{language: language}, nil
}

func (s *Snowball) Stem(token string) string {
	stemmed, err := snowball.Stem(token, s.language, true)
	if err != nil {
		return token
	}
	return stemmed
}

// None returns tokens unchanged.
type None struct{}

func (None) Stem(token string) string { return token }
