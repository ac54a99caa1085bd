package dto

import (
	"time"

	"github.com/hyperterse/querycheck/core/domain/search"
)

// ValidateRequest is the body of POST /api/search/validate
type ValidateRequest struct {
	Query      string      `json:"query" validate:"max=65536"`
	Filter     string      `json:"filter,omitempty" validate:"max=65536"`
	Streams    []string    `json:"streams,omitempty" validate:"max=1000,dive,required"`
	TimeRange  *TimeRange  `json:"timerange,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty" validate:"dive"`
}

type TimeRange struct {
	Type    string     `json:"type" validate:"required,oneof=relative absolute keyword"`
	Range   int        `json:"range,omitempty" validate:"min=0"`
	From    *time.Time `json:"from,omitempty" validate:"required_if=Type absolute"`
	To      *time.Time `json:"to,omitempty" validate:"required_if=Type absolute"`
	Keyword string     `json:"keyword,omitempty" validate:"required_if=Type keyword"`
}

type Parameter struct {
	Name         string   `json:"name" validate:"required"`
	DataType     string   `json:"data_type,omitempty"`
	Binding      *Binding `json:"binding,omitempty"`
	DefaultValue any      `json:"default_value,omitempty"`
}

type Binding struct {
	Value any `json:"value"`
}

// ToDomain converts the body into a validation request. A missing time
// range covers all time.
func (r ValidateRequest) ToDomain() search.ValidationRequest {
	req := search.ValidationRequest{
		Query:     r.Query,
		Filter:    r.Filter,
		Streams:   r.Streams,
		TimeRange: search.RelativeRange(0),
	}

	if tr := r.TimeRange; tr != nil {
		switch search.TimeRangeType(tr.Type) {
		case search.TimeRangeAbsolute:
			req.TimeRange = search.AbsoluteRange(*tr.From, *tr.To)
		case search.TimeRangeKeyword:
			req.TimeRange = search.KeywordRange(tr.Keyword)
		default:
			req.TimeRange = search.RelativeRange(tr.Range)
		}
	}

	for _, p := range r.Parameters {
		param := search.Parameter{
			Name:         p.Name,
			DataType:     p.DataType,
			DefaultValue: p.DefaultValue,
		}
		if p.Binding != nil {
			param.Binding = &search.Binding{Value: p.Binding.Value}
		}
		req.Parameters = append(req.Parameters, param)
	}
	return req
}

// ValidateResponse mirrors search.ValidationResponse
type ValidateResponse struct {
	Status       string        `json:"status"`
	Explanations []Explanation `json:"explanations"`
}

// Explanation carries either all four coordinates or none
type Explanation struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
	BeginLine    *int   `json:"begin_line,omitempty"`
	BeginColumn  *int   `json:"begin_column,omitempty"`
	EndLine      *int   `json:"end_line,omitempty"`
	EndColumn    *int   `json:"end_column,omitempty"`
}

func FromValidationResponse(resp search.ValidationResponse) ValidateResponse {
	out := ValidateResponse{
		Status:       string(resp.Status),
		Explanations: make([]Explanation, 0, len(resp.Explanations)),
	}
	for _, msg := range resp.Explanations {
		explanation := Explanation{
			ErrorType:    string(msg.ErrorType),
			ErrorMessage: msg.ErrorMessage,
		}
		if span := msg.Span; span != nil {
			beginLine, beginColumn, endLine, endColumn := span.BeginLine, span.BeginColumn, span.EndLine, span.EndColumn
			explanation.BeginLine = &beginLine
			explanation.BeginColumn = &beginColumn
			explanation.EndLine = &endLine
			explanation.EndColumn = &endColumn
		}
		out.Explanations = append(out.Explanations, explanation)
	}
	return out
}
