package textpos

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Span is a region of source text.
// Lines are 1-based. Columns are 0-based rune offsets within their line and
// EndColumn is exclusive, so a single-line span covers runes
// [BeginColumn, EndColumn) of line BeginLine.
type Span struct {
	BeginLine   int
	BeginColumn int
	EndLine     int
	EndColumn   int
}

// Index converts byte offsets of a text into line and column positions
type Index struct {
	text       string
	lineStarts []int
}

// NewIndex builds a position index for text
func NewIndex(text string) *Index {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{text: text, lineStarts: starts}
}

// Position returns the 1-based line and 0-based rune column of a byte offset.
// Offsets past the end of the text are clamped.
func (ix *Index) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(ix.text) {
		offset = len(ix.text)
	}
	i := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return i + 1, utf8.RuneCountInString(ix.text[ix.lineStarts[i]:offset])
}

// Span returns the span covering the byte range [start, end)
func (ix *Index) Span(start, end int) Span {
	bl, bc := ix.Position(start)
	el, ec := ix.Position(end)
	return Span{BeginLine: bl, BeginColumn: bc, EndLine: el, EndColumn: ec}
}

// Occurrences returns the spans of all non-overlapping occurrences of needle in
// haystack, ordered top to bottom and left to right. The result is empty when
// the needle is empty or absent.
func Occurrences(haystack, needle string) []Span {
	spans := []Span{}
	if needle == "" || len(needle) > len(haystack) {
		return spans
	}

	ix := NewIndex(haystack)
	for offset := 0; offset <= len(haystack)-len(needle); {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(needle)
		spans = append(spans, ix.Span(start, end))
		offset = end
	}
	return spans
}

// Extract returns the text covered by span, or "" when the span lies outside text
func Extract(text string, span Span) string {
	lines := strings.Split(text, "\n")
	if span.BeginLine < 1 || span.EndLine > len(lines) || span.BeginLine > span.EndLine {
		return ""
	}

	first := []rune(lines[span.BeginLine-1])
	last := []rune(lines[span.EndLine-1])
	if span.BeginColumn < 0 || span.BeginColumn > len(first) || span.EndColumn < 0 || span.EndColumn > len(last) {
		return ""
	}

	if span.BeginLine == span.EndLine {
		if span.BeginColumn > span.EndColumn {
			return ""
		}
		return string(first[span.BeginColumn:span.EndColumn])
	}

	var b strings.Builder
	b.WriteString(string(first[span.BeginColumn:]))
	for _, line := range lines[span.BeginLine : span.EndLine-1] {
		b.WriteByte('\n')
		b.WriteString(line)
	}
	b.WriteByte('\n')
	b.WriteString(string(last[:span.EndColumn]))
	return b.String()
}
