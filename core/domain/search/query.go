package search

import "github.com/hyperterse/querycheck/core/shared/textpos"

const (
	// DefaultField is the field of terms written without a field name
	DefaultField = "_default_"
	// ExistsField is the pseudo field of existence checks such as _exists_:source
	ExistsField = "_exists_"
)

// Token is a piece of source text with its position
type Token struct {
	Image string
	Span  textpos.Span
}

// TermKind distinguishes how a term's value was written
type TermKind int

const (
	TermPlain TermKind = iota
	TermPhrase
	TermWildcard
	TermRegex
	TermFuzzy
	TermRangeBound
	TermExists
)

func (k TermKind) String() string {
	switch k {
	case TermPlain:
		return "term"
	case TermPhrase:
		return "phrase"
	case TermWildcard:
		return "wildcard"
	case TermRegex:
		return "regex"
	case TermFuzzy:
		return "fuzzy"
	case TermRangeBound:
		return "range"
	case TermExists:
		return "exists"
	default:
		return "unknown"
	}
}

// ParsedTerm is a single field/value unit of a parsed query.
// Tokens holds the field-name token first when the field was written explicitly.
type ParsedTerm struct {
	Field  string
	Value  string
	Kind   TermKind
	Tokens []Token
}

// IsDefaultField reports whether the term targets the implicit default field
func (t ParsedTerm) IsDefaultField() bool {
	return t.Field == DefaultField
}

// RealFieldName returns the field the term refers to. For existence checks
// this is the checked field rather than the pseudo field.
func (t ParsedTerm) RealFieldName() string {
	if t.Field == ExistsField {
		return t.Value
	}
	return t.Field
}

// FirstToken returns the first source token of the term
func (t ParsedTerm) FirstToken() (Token, bool) {
	if len(t.Tokens) == 0 {
		return Token{}, false
	}
	return t.Tokens[0], true
}

// IsLiteral reports whether the value is a literal that a field type can judge.
// Wildcards, regular expressions, fuzzy terms, open range bounds and
// existence checks are patterns rather than values.
func (t ParsedTerm) IsLiteral() bool {
	switch t.Kind {
	case TermPlain, TermPhrase:
		return true
	case TermRangeBound:
		return t.Value != "*"
	default:
		return false
	}
}

// ParsedQuery is the result of parsing a query string
type ParsedQuery struct {
	Query string
	// Terms are in source order
	Terms []ParsedTerm
	// InvalidOperators holds standalone and/or tokens not written in upper case
	InvalidOperators []ParsedTerm
	Tokens           []Token
}
