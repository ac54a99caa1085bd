package decorators

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hyperterse/querycheck/core/domain/search"
)

var (
	// Placeholder pattern: $name$
	placeholderPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)\$`)

	reservedWords = map[string]bool{"AND": true, "OR": true, "NOT": true, "TO": true}
)

// ParameterDecorator replaces $name$ placeholders with bound parameter values
type ParameterDecorator struct{}

// NewParameterDecorator creates a parameter decorator
func NewParameterDecorator() *ParameterDecorator {
	return &ParameterDecorator{}
}

// Decorate substitutes every placeholder in query. Each parameter resolves to
// its binding, then its default value. The first placeholder that cannot be
// resolved fails the whole decoration.
func (d *ParameterDecorator) Decorate(query string, params search.ParameterProvider, _ search.ValidationRequest) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatch(query, -1)
	if len(matches) == 0 {
		return query, nil
	}

	formatted := make(map[string]string, len(matches))
	for _, match := range matches {
		name := match[1]
		if _, done := formatted[name]; done {
			continue
		}

		var (
			param search.Parameter
			ok    bool
		)
		if params != nil {
			param, ok = params.Parameter(name)
		}
		if !ok {
			return "", &search.ParameterBindingError{
				ParameterName: name,
				Description:   fmt.Sprintf("Undeclared parameter used: %s", name),
			}
		}

		value, bound := resolveValue(param)
		if !bound {
			return "", &search.ParameterBindingError{
				ParameterName: name,
				Description:   fmt.Sprintf("Unbound required parameter used: %s", name),
			}
		}
		formatted[name] = formatValue(value)
	}

	return placeholderPattern.ReplaceAllStringFunc(query, func(placeholder string) string {
		return formatted[placeholder[1:len(placeholder)-1]]
	}), nil
}

func resolveValue(param search.Parameter) (any, bool) {
	if param.Binding != nil && param.Binding.Value != nil {
		return param.Binding.Value, true
	}
	if param.DefaultValue != nil {
		return param.DefaultValue, true
	}
	return nil, false
}

// formatValue renders a value so that it stays a single query term.
// Numbers never use exponent notation, which integer fields reject.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return quoteIfNeeded(v)
	case int, int8, int16, int32, int64:
		return escapeSign(fmt.Sprintf("%d", v))
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return escapeSign(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case float64:
		return escapeSign(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return quote(v.UTC().Format(time.RFC3339Nano))
	case []string:
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = quoteIfNeeded(s)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	default:
		return quoteIfNeeded(fmt.Sprintf("%v", v))
	}
}

func escapeSign(number string) string {
	if strings.HasPrefix(number, "-") {
		return `\` + number
	}
	return number
}

func quoteIfNeeded(s string) string {
	if s == "" || reservedWords[s] || strings.ContainsAny(s, " \t\r\n+-!():^[]\"{}~*?\\/&|<>") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
