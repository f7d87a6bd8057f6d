// Package contract prepares long contract text for a context-budgeted
// extraction call: it splits the text into paragraph chunks, scores each
// chunk by domain-keyword density and keeps the most relevant ones in their
// original order.
package contract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Defaults used when no explicit configuration is given.
const (
	DefaultMinChunkLength = 20
	DefaultChunkLimit     = 15
)

// Chunk is one paragraph of source text.
type Chunk struct {
	Index int     `json:"index"` // position in the split sequence
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

var paragraphBreak = regexp.MustCompile(`\n[ \t\f\v]*\n\s*`)

// Chunker splits text on blank lines and drops fragments shorter than
// MinLength runes (headings, page numbers, signature lines).
type Chunker struct {
	MinLength int
}

// NewChunker returns a Chunker; a non-positive minLength selects the default.
func NewChunker(minLength int) *Chunker {
	if minLength <= 0 {
		minLength = DefaultMinChunkLength
	}
	return &Chunker{MinLength: minLength}
}

// Split returns the substantive paragraphs of text in document order.
func (c *Chunker) Split(text string) []Chunk {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var chunks []Chunk
	for _, part := range paragraphBreak.Split(text, -1) {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) < c.MinLength {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: part})
	}
	return chunks
}

// Split splits text with the default minimum chunk length.
func Split(text string) []Chunk {
	return NewChunker(DefaultMinChunkLength).Split(text)
}
