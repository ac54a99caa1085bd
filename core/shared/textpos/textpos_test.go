package textpos

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOccurrences_MultiLine(t *testing.T) {
	haystack := "source:$src$\nAND level:3\nOR host:$src$"

	spans := Occurrences(haystack, "$src$")
	require.Len(t, spans, 2)

	assert.Equal(t, Span{BeginLine: 1, BeginColumn: 7, EndLine: 1, EndColumn: 12}, spans[0])
	assert.Equal(t, Span{BeginLine: 3, BeginColumn: 8, EndLine: 3, EndColumn: 13}, spans[1])
	for _, s := range spans {
		assert.Equal(t, "$src$", Extract(haystack, s))
	}
}

func TestOccurrences_Empty(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
	}{
		{"absent needle", "foo:bar", "$x$"},
		{"empty needle", "foo:bar", ""},
		{"empty haystack", "", "$x$"},
		{"needle longer than haystack", "$x", "$x$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Occurrences(tt.haystack, tt.needle)
			assert.NotNil(t, spans)
			assert.Empty(t, spans)
		})
	}
}

func TestOccurrences_NonOverlapping(t *testing.T) {
	spans := Occurrences("aaaa", "aa")
	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0].BeginColumn)
	assert.Equal(t, 2, spans[1].BeginColumn)
}

func TestOccurrences_RuneColumns(t *testing.T) {
	haystack := "straße:$p$"
	spans := Occurrences(haystack, "$p$")
	require.Len(t, spans, 1)
	assert.Equal(t, 7, spans[0].BeginColumn)
	assert.Equal(t, 10, spans[0].EndColumn)
	assert.Equal(t, "$p$", Extract(haystack, spans[0]))
}

func TestExtract_MultiLineSpan(t *testing.T) {
	text := "ab\ncd\nef"
	assert.Equal(t, "b\ncd\ne", Extract(text, Span{BeginLine: 1, BeginColumn: 1, EndLine: 3, EndColumn: 1}))
	assert.Equal(t, "", Extract(text, Span{BeginLine: 4, BeginColumn: 0, EndLine: 4, EndColumn: 1}))
	assert.Equal(t, "", Extract(text, Span{BeginLine: 1, BeginColumn: 2, EndLine: 1, EndColumn: 5}))
}

func TestIndex_Position(t *testing.T) {
	ix := NewIndex("one\ntwo\n")

	line, col := ix.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 0, col)

	line, col = ix.Position(5)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	line, col = ix.Position(8)
	assert.Equal(t, 3, line)
	assert.Equal(t, 0, col)
}

func TestOccurrences_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z :\n]{0,8}`), 1, 6).Draw(t, "segments")
		needle := "$" + rapid.StringMatching(`[a-z_]{1,6}`).Draw(t, "name") + "$"
		haystack := strings.Join(segments, needle)

		spans := Occurrences(haystack, needle)

		require.Len(t, spans, strings.Count(haystack, needle))
		for i, s := range spans {
			require.Equal(t, needle, Extract(haystack, s))
			require.Equal(t, s.BeginLine, s.EndLine)
			if i > 0 {
				prev := spans[i-1]
				ordered := s.BeginLine > prev.EndLine ||
					(s.BeginLine == prev.EndLine && s.BeginColumn >= prev.EndColumn)
				require.True(t, ordered, "spans out of order: %v then %v", prev, s)
			}
		}
	})
}
