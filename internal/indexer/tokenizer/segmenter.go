package tokenizer

import (
	"strings"

	"github.com/huichen/sego"
)

// Segmenter tokenizes text with a sego dictionary. Whitespace and punctuation
// segments are dropped.
type Segmenter struct {
	seg sego.Segmenter
}

// NewSegmenter loads the comma-separated dictionary files.
func NewSegmenter(dictionaries string) *Segmenter {
	s := &Segmenter{}
	s.seg.LoadDictionary(dictionaries)
	return s
}

func (s *Segmenter) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	segments := s.seg.Segment([]byte(text))
	tokens := make([]string, 0, len(segments))
	for _, segment := range segments {
		token := strings.TrimSpace(segment.Token().Text())
		if token == "" || !wordPattern.MatchString(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
