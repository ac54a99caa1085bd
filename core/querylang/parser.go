// Package querylang parses search queries written in the Lucene classic
// syntax into terms with source positions.
package querylang

import (
	"fmt"
	"strings"

	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/shared/textpos"
)

const msgEndOfInput = "incomplete query, query ended unexpectedly"

// Option configures a Parser
type Option func(*Parser)

// WithLeadingWildcards controls whether terms may start with * or ?
func WithLeadingWildcards(allowed bool) Option {
	return func(p *Parser) {
		p.allowLeadingWildcard = allowed
	}
}

// Parser parses query strings. It holds no per-query state and is safe for
// concurrent use.
type Parser struct {
	allowLeadingWildcard bool
}

// New creates a parser. Leading wildcards are allowed unless disabled.
func New(opts ...Option) *Parser {
	p := &Parser{allowLeadingWildcard: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses query. Failures are returned as *search.SyntaxError.
func (p *Parser) Parse(query string) (*search.ParsedQuery, error) {
	st := &parseState{
		query:                query,
		index:                textpos.NewIndex(query),
		allowLeadingWildcard: p.allowLeadingWildcard,
		result: &search.ParsedQuery{
			Query:            query,
			Terms:            []search.ParsedTerm{},
			InvalidOperators: []search.ParsedTerm{},
		},
	}

	tokens, lexErr := lex(query)
	if lexErr != nil {
		return nil, st.syntaxError(lexErr.message, query[lexErr.start:lexErr.end], lexErr.start, lexErr.end)
	}
	st.tokens = tokens

	st.result.Tokens = make([]search.Token, 0, len(tokens)-1)
	for _, t := range tokens {
		if t.typ != tokEOF {
			st.result.Tokens = append(st.result.Tokens, st.sourceToken(t))
		}
	}

	if err := st.parseQuery(nil, 0); err != nil {
		return nil, err
	}
	return st.result, nil
}

type parseState struct {
	query                string
	index                *textpos.Index
	tokens               []token
	pos                  int
	allowLeadingWildcard bool
	result               *search.ParsedQuery
}

func (st *parseState) peek() token {
	return st.tokens[st.pos]
}

func (st *parseState) next() token {
	t := st.tokens[st.pos]
	if t.typ != tokEOF {
		st.pos++
	}
	return t
}

// parseQuery parses clauses joined by optional conjunctions until the end of
// input or, inside a group, the closing parenthesis
func (st *parseState) parseQuery(field *token, depth int) error {
	clauses := 0
	for {
		t := st.peek()
		switch t.typ {
		case tokEOF:
			if depth > 0 {
				return st.endOfInput()
			}
			return nil
		case tokRParen:
			if depth == 0 || clauses == 0 {
				return st.unexpected(t)
			}
			return nil
		case tokAnd, tokOr:
			if clauses == 0 {
				return st.unexpected(t)
			}
			st.next()
		}

		if err := st.parseClause(field, depth); err != nil {
			return err
		}
		clauses++
	}
}

func (st *parseState) parseClause(field *token, depth int) error {
	switch st.peek().typ {
	case tokPlus, tokMinus, tokBang, tokNot:
		st.next()
	}

	t := st.next()
	switch t.typ {
	case tokEOF:
		return st.endOfInput()
	case tokLParen:
		return st.parseGroup(field, depth)
	case tokTerm:
		if st.peek().typ == tokColon {
			st.next()
			return st.parseFieldValue(t, depth)
		}
		return st.parseValue(field, t, true)
	case tokPhrase, tokRegex:
		return st.parseValue(field, t, true)
	case tokRangeStart:
		return st.parseRange(field)
	default:
		return st.unexpected(t)
	}
}

func (st *parseState) parseGroup(field *token, depth int) error {
	if err := st.parseQuery(field, depth+1); err != nil {
		return err
	}
	if t := st.next(); t.typ != tokRParen {
		return st.unexpected(t)
	}
	_, err := st.suffixes()
	return err
}

func (st *parseState) parseFieldValue(field token, depth int) error {
	t := st.next()
	switch t.typ {
	case tokEOF:
		return st.endOfInput()
	case tokLParen:
		return st.parseGroup(&field, depth)
	case tokTerm:
		if op := comparisonOperator(t.image); op != "" {
			return st.parseComparison(&field, t, op)
		}
		return st.parseValue(&field, t, false)
	case tokPhrase, tokRegex:
		return st.parseValue(&field, t, false)
	case tokRangeStart:
		return st.parseRange(&field)
	default:
		return st.unexpected(t)
	}
}

// parseValue records a term. standalone is false when the value directly
// follows a field name and colon.
func (st *parseState) parseValue(field *token, t token, standalone bool) error {
	kind := search.TermPlain
	switch t.typ {
	case tokPhrase:
		kind = search.TermPhrase
	case tokRegex:
		kind = search.TermRegex
	case tokTerm:
		if t.wildcard {
			kind = search.TermWildcard
		}
	}

	fuzzy, err := st.suffixes()
	if err != nil {
		return err
	}
	if fuzzy && kind == search.TermPlain {
		kind = search.TermFuzzy
	}

	// *:* matches everything and names no field
	if field != nil && field.value == "*" && t.typ == tokTerm && t.value == "*" {
		return nil
	}

	if kind == search.TermWildcard && !st.allowLeadingWildcard && t.value != "*" &&
		(strings.HasPrefix(t.value, "*") || strings.HasPrefix(t.value, "?")) {
		return st.syntaxError("'*' or '?' not allowed as first character in WildcardQuery", t.image, t.start, t.end)
	}

	st.addTerm(field, t, kind)

	if standalone && t.typ == tokTerm && isMiscasedOperator(t.image) {
		name := search.DefaultField
		if field != nil {
			name = field.value
		}
		st.result.InvalidOperators = append(st.result.InvalidOperators, search.ParsedTerm{
			Field:  name,
			Value:  t.image,
			Kind:   search.TermPlain,
			Tokens: []search.Token{st.sourceToken(t)},
		})
	}
	return nil
}

func (st *parseState) parseRange(field *token) error {
	lower, err := st.rangeBound()
	if err != nil {
		return err
	}

	to := st.next()
	if to.typ == tokEOF {
		return st.endOfInput()
	}
	if to.typ != tokTerm || to.image != "TO" {
		return st.unexpected(to)
	}

	upper, err := st.rangeBound()
	if err != nil {
		return err
	}

	if closing := st.next(); closing.typ != tokRangeEnd {
		return st.unexpected(closing)
	}
	if _, err := st.suffixes(); err != nil {
		return err
	}

	st.addTerm(field, lower, search.TermRangeBound)
	st.addTerm(field, upper, search.TermRangeBound)
	return nil
}

// parseComparison records field:>10 style shorthand as a single open range bound
func (st *parseState) parseComparison(field *token, t token, op string) error {
	if len(t.image) == len(op) {
		return st.syntaxError(fmt.Sprintf("missing value after \"%s\"", op), t.image, t.start, t.end)
	}
	if _, err := st.suffixes(); err != nil {
		return err
	}

	bound := t
	bound.image = t.image[len(op):]
	bound.value = t.value[len(op):]
	bound.start += len(op)
	st.addTerm(field, bound, search.TermRangeBound)
	return nil
}

func comparisonOperator(image string) string {
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(image, op) {
			return op
		}
	}
	return ""
}

func (st *parseState) rangeBound() (token, error) {
	t := st.next()
	switch t.typ {
	case tokTerm, tokPhrase:
		return t, nil
	default:
		return t, st.unexpected(t)
	}
}

// suffixes consumes boost and fuzzy suffixes and reports whether a fuzzy
// suffix was present
func (st *parseState) suffixes() (bool, error) {
	fuzzy := false
	for {
		switch st.peek().typ {
		case tokBoost:
			st.next()
		case tokFuzzy:
			st.next()
			fuzzy = true
		default:
			return fuzzy, nil
		}
	}
}

func (st *parseState) addTerm(field *token, value token, kind search.TermKind) {
	term := search.ParsedTerm{
		Field: search.DefaultField,
		Value: value.value,
		Kind:  kind,
	}
	if field != nil {
		term.Field = field.value
		term.Tokens = append(term.Tokens, st.sourceToken(*field))
		if field.value == search.ExistsField {
			term.Kind = search.TermExists
		}
	}
	term.Tokens = append(term.Tokens, st.sourceToken(value))
	st.result.Terms = append(st.result.Terms, term)
}

func isMiscasedOperator(image string) bool {
	if !strings.EqualFold(image, "and") && !strings.EqualFold(image, "or") {
		return false
	}
	return image != strings.ToUpper(image)
}

func (st *parseState) sourceToken(t token) search.Token {
	return search.Token{Image: t.image, Span: st.index.Span(t.start, t.end)}
}

func (st *parseState) endOfInput() error {
	for i := len(st.tokens) - 1; i >= 0; i-- {
		if t := st.tokens[i]; t.typ != tokEOF {
			return st.syntaxError(msgEndOfInput, "", t.start, t.end)
		}
	}
	return &search.SyntaxError{Query: st.query, Message: msgEndOfInput}
}

func (st *parseState) unexpected(t token) error {
	if t.typ == tokEOF {
		return st.endOfInput()
	}
	return st.syntaxError(fmt.Sprintf("unexpected \"%s\"", t.image), t.image, t.start, t.end)
}

func (st *parseState) syntaxError(message, image string, start, end int) error {
	span := st.index.Span(start, end)
	return &search.SyntaxError{
		Query:   st.query,
		Message: message,
		Image:   image,
		Span:    &span,
	}
}
