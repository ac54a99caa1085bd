package querylang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokTerm
	tokPhrase
	tokRegex
	tokColon
	tokLParen
	tokRParen
	tokRangeStart
	tokRangeEnd
	tokPlus
	tokMinus
	tokBang
	tokAnd
	tokOr
	tokNot
	tokBoost
	tokFuzzy
)

// token is a lexical unit. image is the raw source text, value the
// unescaped text with quotes or slashes removed.
type token struct {
	typ      tokenType
	image    string
	value    string
	start    int
	end      int
	wildcard bool
}

type lexError struct {
	message string
	start   int
	end     int
}

type lexer struct {
	input   string
	pos     int
	inRange bool
	tokens  []token
}

// lex splits input into tokens, always ending with tokEOF
func lex(input string) ([]token, *lexError) {
	l := &lexer{input: input}
	for {
		l.skipSpace()
		if l.pos >= len(l.input) {
			l.tokens = append(l.tokens, token{typ: tokEOF, start: len(l.input), end: len(l.input)})
			return l.tokens, nil
		}
		var err *lexError
		if l.inRange {
			err = l.lexRange()
		} else {
			err = l.lexDefault()
		}
		if err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *lexer) emit(typ tokenType, start int, value string) {
	l.tokens = append(l.tokens, token{
		typ:   typ,
		image: l.input[start:l.pos],
		value: value,
		start: start,
		end:   l.pos,
	})
}

func (l *lexer) single(typ tokenType) {
	start := l.pos
	l.pos++
	l.emit(typ, start, l.input[start:l.pos])
}

func (l *lexer) lexDefault() *lexError {
	c := l.input[l.pos]
	switch c {
	case '(':
		l.single(tokLParen)
	case ')':
		l.single(tokRParen)
	case '[', '{':
		l.single(tokRangeStart)
		l.inRange = true
	case ']', '}':
		l.single(tokRangeEnd)
	case ':':
		l.single(tokColon)
	case '+':
		l.single(tokPlus)
	case '-':
		l.single(tokMinus)
	case '!':
		l.single(tokBang)
	case '"':
		return l.lexQuoted('"', tokPhrase, "unterminated quoted phrase")
	case '/':
		return l.lexQuoted('/', tokRegex, "unterminated regular expression")
	case '^':
		return l.lexSuffix(tokBoost, true)
	case '~':
		return l.lexSuffix(tokFuzzy, false)
	case '&', '|':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == c {
			start := l.pos
			l.pos += 2
			typ := tokAnd
			if c == '|' {
				typ = tokOr
			}
			l.emit(typ, start, l.input[start:l.pos])
			return nil
		}
		return l.lexTerm(isTermBoundary)
	default:
		return l.lexTerm(isTermBoundary)
	}
	return nil
}

func (l *lexer) lexRange() *lexError {
	switch l.input[l.pos] {
	case ']', '}':
		l.single(tokRangeEnd)
		l.inRange = false
		return nil
	case '"':
		return l.lexQuoted('"', tokPhrase, "unterminated quoted phrase")
	default:
		return l.lexTerm(isRangeBoundary)
	}
}

func isTermBoundary(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`()[]{}:^~"/!`, r)
}

func isRangeBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == ']' || r == '}'
}

func (l *lexer) lexTerm(boundary func(rune) bool) *lexError {
	start := l.pos
	var value strings.Builder
	wildcard := false

	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if r == '\\' {
			if l.pos+size >= len(l.input) {
				return &lexError{message: "query ended with an escape character", start: l.pos, end: len(l.input)}
			}
			escaped, escSize := utf8.DecodeRuneInString(l.input[l.pos+size:])
			value.WriteRune(escaped)
			l.pos += size + escSize
			continue
		}
		if boundary(r) {
			break
		}
		if r == '*' || r == '?' {
			wildcard = true
		}
		value.WriteRune(r)
		l.pos += size
	}

	typ := tokTerm
	if !l.inRange {
		switch l.input[start:l.pos] {
		case "AND":
			typ = tokAnd
		case "OR":
			typ = tokOr
		case "NOT":
			typ = tokNot
		}
	}
	l.emit(typ, start, value.String())
	l.tokens[len(l.tokens)-1].wildcard = wildcard && typ == tokTerm
	return nil
}

func (l *lexer) lexQuoted(quote byte, typ tokenType, unterminated string) *lexError {
	start := l.pos
	l.pos++
	var value strings.Builder

	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\':
			if l.pos+1 >= len(l.input) {
				return &lexError{message: unterminated, start: start, end: len(l.input)}
			}
			r, size := utf8.DecodeRuneInString(l.input[l.pos+1:])
			if typ == tokRegex && r != '/' {
				value.WriteByte('\\')
			}
			value.WriteRune(r)
			l.pos += 1 + size
		case c == quote:
			l.pos++
			l.emit(typ, start, value.String())
			return nil
		default:
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			value.WriteRune(r)
			l.pos += size
		}
	}
	return &lexError{message: unterminated, start: start, end: len(l.input)}
}

// lexSuffix reads a boost (^2) or fuzzy (~, ~0.8) suffix
func (l *lexer) lexSuffix(typ tokenType, numberRequired bool) *lexError {
	start := l.pos
	l.pos++
	digits := l.pos
	for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
		l.pos++
	}
	if numberRequired && l.pos == digits {
		return &lexError{message: "boost must be followed by a number", start: start, end: l.pos}
	}
	l.emit(typ, start, l.input[digits:l.pos])
	return nil
}
