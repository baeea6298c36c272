// Package tokenizer splits raw text into word tokens. It provides a
// regexp-based tokenizer for alphabetic languages, a dictionary segmenter for
// CJK text, and diacritic stripping shared by the analysis pipeline.
package tokenizer

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns text into an ordered sequence of raw tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}

// wordPattern matches decimal numbers ("3.14", "2,5") and runs of letters or
// digits. Everything else separates tokens.
var wordPattern = regexp.MustCompile(`\d+[.,]\d+|[\p{L}\p{N}]+`)

// Standard is the default Tokenizer.
type Standard struct{}

// Tokenize returns the word tokens of text in order of appearance.
func (Standard) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return wordPattern.FindAllString(text, -1)
}

// StripAccents removes combining marks after canonical decomposition, so
// "příliš" becomes "prilis".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
