package kb

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Chunker splits document text into overlapping chunks for embedding.
// Splitting prefers paragraph boundaries and falls back to a hard cut
// when a single paragraph exceeds the chunk size.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. Overlap must be smaller than size;
// out-of-range values fall back to defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split returns normalized chunks of text. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = normalize(text)
	if text == "" {
		return nil
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		// Hard-split paragraphs that alone exceed the chunk size.
		for len(p) > c.size {
			if current.Len() > 0 {
				flush()
			}
			cut := c.cutPoint(p)
			chunks = append(chunks, strings.TrimSpace(p[:cut]))

			// The cut point may land before size when it snaps to a
			// word boundary; skip the overlap if it would not advance.
			next := cut - c.overlap
			if next <= 0 {
				next = cut
			}
			p = strings.TrimSpace(p[next:])
		}

		if current.Len()+len(p)+2 > c.size && current.Len() > 0 {
			tail := overlapTail(current.String(), c.overlap)
			flush()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return chunks
}

// cutPoint finds a whitespace near the chunk size to cut at, so a hard
// split does not land mid-word.
func (c *Chunker) cutPoint(p string) int {
	cut := c.size
	for cut > c.size/2 && cut < len(p) && !isSpace(p[cut]) {
		cut--
	}
	if cut <= c.size/2 {
		cut = c.size
	}
	return cut
}

// overlapTail returns the last n bytes of s, extended left to a
// whitespace boundary.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return ""
	}
	start := len(s) - n
	for start > 0 && !isSpace(s[start]) {
		start--
	}
	return strings.TrimSpace(s[start:])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t'
}

// normalize applies NFC normalization and canonicalizes line endings.
func normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
