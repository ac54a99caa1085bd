package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/shared/textpos"
)

func TestValidateRequest_ToDomain_TimeRanges(t *testing.T) {
	tests := []struct {
		name string
		in   *TimeRange
		want search.TimeRange
	}{
		{"missing covers all time", nil, search.RelativeRange(0)},
		{"relative", &TimeRange{Type: "relative", Range: 300}, search.RelativeRange(300)},
		{"keyword", &TimeRange{Type: "keyword", Keyword: "last week"}, search.KeywordRange("last week")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRequest{Query: "a", TimeRange: tt.in}.ToDomain()
			assert.Equal(t, tt.want, got.TimeRange)
		})
	}
}

func TestValidateRequest_ToDomain_NoParameters(t *testing.T) {
	got := ValidateRequest{Query: "a"}.ToDomain()
	_, ok := got.Parameters.Parameter("a")
	assert.False(t, ok)
}

func TestFromValidationResponse(t *testing.T) {
	resp := search.Warning([]search.ValidationMessage{
		search.NewMessage(search.ErrorTypeInvalidOperator, "bad").At(textpos.Span{BeginLine: 2, BeginColumn: 3, EndLine: 2, EndColumn: 6}),
	})

	out := FromValidationResponse(resp)
	assert.Equal(t, "WARNING", out.Status)
	if assert.Len(t, out.Explanations, 1) {
		e := out.Explanations[0]
		assert.Equal(t, "Invalid operator", e.ErrorType)
		assert.Equal(t, 2, *e.BeginLine)
		assert.Equal(t, 3, *e.BeginColumn)
		assert.Equal(t, 2, *e.EndLine)
		assert.Equal(t, 6, *e.EndColumn)
	}

	assert.NotNil(t, FromValidationResponse(search.OK()).Explanations)
}
