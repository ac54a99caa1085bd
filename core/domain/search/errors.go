package search

import (
	"errors"
	"fmt"

	"github.com/hyperterse/querycheck/core/shared/textpos"
)

// SyntaxError is returned by a query parser for text it cannot parse
type SyntaxError struct {
	Query   string
	Message string
	// Image is the offending text, empty at end of input
	Image string
	Span  *textpos.Span
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Cannot parse '%s': %s", e.Query, e.Message)
}

// ParameterBindingError is returned by decoration when a referenced
// parameter cannot be resolved to a value
type ParameterBindingError struct {
	ParameterName string
	Description   string
}

func (e *ParameterBindingError) Error() string {
	return e.Description
}

// MessageFromError turns a parser or decoration failure into a message
func MessageFromError(err error) ValidationMessage {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		msg := NewMessage(ErrorTypeParsing, syntaxErr.Error())
		if syntaxErr.Span != nil {
			msg = msg.At(*syntaxErr.Span)
		}
		return msg
	}

	var bindingErr *ParameterBindingError
	if errors.As(err, &bindingErr) {
		return NewMessage(ErrorTypeParameter, bindingErr.Description)
	}

	return NewMessage(ErrorTypeParsing, err.Error())
}
