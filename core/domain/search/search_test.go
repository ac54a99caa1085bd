package search

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/querycheck/core/shared/textpos"
)

func TestMessageFromError(t *testing.T) {
	span := textpos.Span{BeginLine: 1, BeginColumn: 4, EndLine: 1, EndColumn: 5}

	t.Run("syntax error keeps its position", func(t *testing.T) {
		err := fmt.Errorf("parse: %w", &SyntaxError{Query: "foo:(", Message: "incomplete query", Span: &span})
		msg := MessageFromError(err)
		assert.Equal(t, ErrorTypeParsing, msg.ErrorType)
		assert.Equal(t, "Cannot parse 'foo:(': incomplete query", msg.ErrorMessage)
		require.NotNil(t, msg.Span)
		assert.Equal(t, span, *msg.Span)
	})

	t.Run("syntax error without position", func(t *testing.T) {
		msg := MessageFromError(&SyntaxError{Query: "x", Message: "boom"})
		assert.Nil(t, msg.Span)
	})

	t.Run("binding error", func(t *testing.T) {
		msg := MessageFromError(&ParameterBindingError{ParameterName: "src", Description: "Unbound required parameter used: src"})
		assert.Equal(t, ErrorTypeParameter, msg.ErrorType)
		assert.Equal(t, "Unbound required parameter used: src", msg.ErrorMessage)
		assert.Nil(t, msg.Span)
	})

	t.Run("other errors", func(t *testing.T) {
		msg := MessageFromError(errors.New("decorator exploded"))
		assert.Equal(t, ErrorTypeParsing, msg.ErrorType)
		assert.Equal(t, "decorator exploded", msg.ErrorMessage)
	})
}

func TestParsedTerm(t *testing.T) {
	exists := ParsedTerm{Field: ExistsField, Value: "source", Kind: TermExists}
	assert.Equal(t, "source", exists.RealFieldName())
	assert.False(t, exists.IsLiteral())

	plain := ParsedTerm{Field: DefaultField, Value: "error", Kind: TermPlain}
	assert.True(t, plain.IsDefaultField())
	assert.True(t, plain.IsLiteral())
	_, ok := plain.FirstToken()
	assert.False(t, ok)

	assert.False(t, ParsedTerm{Kind: TermRangeBound, Value: "*"}.IsLiteral())
	assert.True(t, ParsedTerm{Kind: TermRangeBound, Value: "10"}.IsLiteral())
	assert.False(t, ParsedTerm{Kind: TermWildcard, Value: "err*"}.IsLiteral())
}

func TestValidationRequest(t *testing.T) {
	req := ValidationRequest{Query: "a:1", Streams: []string{"s2", "s1", "s2", " "}}
	assert.Equal(t, []string{"s1", "s2"}, req.StreamSet())
	assert.Equal(t, "a:1", req.CombinedQueryWithFilter())

	req.Filter = "streams:abc"
	assert.Equal(t, "(a:1) AND (streams:abc)", req.CombinedQueryWithFilter())
}

func TestParameters_Lookup(t *testing.T) {
	params := Parameters{{Name: "a", DefaultValue: "x"}, {Name: "a", DefaultValue: "y"}}
	p, ok := params.Parameter("a")
	require.True(t, ok)
	assert.Equal(t, "x", p.DefaultValue)

	_, ok = params.Parameter("b")
	assert.False(t, ok)
}

func TestTimeRange_Bounds(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

	from, to, err := RelativeRange(300).Bounds(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-5*time.Minute), from)
	assert.Equal(t, now, to)

	from, _, err = RelativeRange(0).Bounds(now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), from.Unix())

	from, to, err = KeywordRange("Yesterday").Bounds(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), to)

	_, _, err = AbsoluteRange(now, now.Add(-time.Hour)).Bounds(now)
	assert.Error(t, err)

	_, _, err = KeywordRange("next century").Bounds(now)
	assert.Error(t, err)
}

func TestTimeRange_Key(t *testing.T) {
	assert.Equal(t, "relative:300", RelativeRange(300).Key())
	assert.Equal(t, "keyword:today", KeywordRange(" Today").Key())
	abs := AbsoluteRange(time.Unix(0, 0), time.Unix(60, 0))
	assert.Equal(t, "absolute:1970-01-01T00:00:00Z:1970-01-01T00:01:00Z", abs.Key())
}

func TestResponses(t *testing.T) {
	assert.Equal(t, StatusOK, OK().Status)
	assert.Empty(t, OK().Explanations)

	msg := NewMessage(ErrorTypeUnknownField, "x")
	assert.Equal(t, StatusWarning, Warning([]ValidationMessage{msg}).Status)
	assert.Equal(t, StatusError, Error([]ValidationMessage{msg}).Status)
	assert.Nil(t, msg.Span)
	assert.NotNil(t, msg.At(textpos.Span{BeginLine: 1}).Span)
}
