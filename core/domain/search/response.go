package search

import "github.com/hyperterse/querycheck/core/shared/textpos"

// ValidationStatus is the overall verdict of a validation
type ValidationStatus string

const (
	StatusOK      ValidationStatus = "OK"
	StatusWarning ValidationStatus = "WARNING"
	StatusError   ValidationStatus = "ERROR"
)

// ErrorType categorizes a validation message
type ErrorType string

const (
	ErrorTypeUnknownField    ErrorType = "Unknown field"
	ErrorTypeInvalidOperator ErrorType = "Invalid operator"
	ErrorTypeInvalidDataType ErrorType = "Invalid data type"
	ErrorTypeParameter       ErrorType = "Parameter error"
	ErrorTypeParsing         ErrorType = "Query parsing error"
)

// ValidationMessage is one diagnostic. Span is nil when no position is known.
type ValidationMessage struct {
	ErrorType    ErrorType
	ErrorMessage string
	Span         *textpos.Span
}

// NewMessage creates a message without position
func NewMessage(errorType ErrorType, text string) ValidationMessage {
	return ValidationMessage{ErrorType: errorType, ErrorMessage: text}
}

// At returns a copy of m positioned at span
func (m ValidationMessage) At(span textpos.Span) ValidationMessage {
	m.Span = &span
	return m
}

// ValidationResponse is the result of a validation
type ValidationResponse struct {
	Status       ValidationStatus
	Explanations []ValidationMessage
}

// OK returns a response without findings
func OK() ValidationResponse {
	return ValidationResponse{Status: StatusOK, Explanations: []ValidationMessage{}}
}

// Warning returns a response for an executable but suspect query
func Warning(messages []ValidationMessage) ValidationResponse {
	return ValidationResponse{Status: StatusWarning, Explanations: messages}
}

// Error returns a response for a query that cannot be executed
func Error(messages []ValidationMessage) ValidationResponse {
	return ValidationResponse{Status: StatusError, Explanations: messages}
}
