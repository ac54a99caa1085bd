package interfaces

import "github.com/hyperterse/querycheck/core/domain/search"

// QueryParser parses query strings into terms with positions
type QueryParser interface {
	// Parse returns a *search.SyntaxError for text it cannot parse
	Parse(query string) (*search.ParsedQuery, error)
}

// QueryDecorator rewrites a query string before it is parsed for value checks
type QueryDecorator interface {
	// Decorate returns a *search.ParameterBindingError when a referenced
	// parameter cannot be resolved
	Decorate(query string, params search.ParameterProvider, req search.ValidationRequest) (string, error)
}
