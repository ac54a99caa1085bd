package fieldtypes

import (
	"fmt"
	"math"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the declared type of an indexed field
type Kind string

const (
	KindString    Kind = "string"
	KindStringFTS Kind = "string_fts"
	KindLong      Kind = "long"
	KindInt       Kind = "int"
	KindShort     Kind = "short"
	KindByte      Kind = "byte"
	KindDouble    Kind = "double"
	KindFloat     Kind = "float"
	KindDate      Kind = "date"
	KindBoolean   Kind = "boolean"
	KindBinary    Kind = "binary"
	KindGeoPoint  Kind = "geo-point"
	KindIP        Kind = "ip"
)

// Kinds lists every supported kind
var Kinds = []Kind{
	KindString, KindStringFTS, KindLong, KindInt, KindShort, KindByte,
	KindDouble, KindFloat, KindDate, KindBoolean, KindBinary, KindGeoPoint, KindIP,
}

// dateLayouts are the accepted textual date encodings, tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// dateMath matches the math part of expressions like now-1d/d or 2024-01-01||+1M
var dateMath = regexp.MustCompile(`^(?:[+-][0-9]+[yMwdhHms]|/[yMwdhHms])*$`)

// ParseKind returns the kind named s
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported field type '%s'", s)
}

// FromPhysical maps a storage mapping type (keyword, integer, date ...) to a kind.
// Unrecognized physical types are treated as strings.
func FromPhysical(physical string) Kind {
	switch strings.ToLower(strings.TrimSpace(physical)) {
	case "keyword", "constant_keyword", "wildcard":
		return KindString
	case "text", "match_only_text":
		return KindStringFTS
	case "long", "unsigned_long":
		return KindLong
	case "integer":
		return KindInt
	case "short":
		return KindShort
	case "byte":
		return KindByte
	case "double", "scaled_float":
		return KindDouble
	case "float", "half_float":
		return KindFloat
	case "date", "date_nanos":
		return KindDate
	case "boolean":
		return KindBoolean
	case "binary":
		return KindBinary
	case "geo_point":
		return KindGeoPoint
	case "ip":
		return KindIP
	default:
		if k, err := ParseKind(physical); err == nil {
			return k
		}
		return KindString
	}
}

// Validate reports whether value is a legal literal for the kind.
// It panics for a kind outside the enumeration.
func (k Kind) Validate(value string) bool {
	switch k {
	case KindString, KindStringFTS, KindBinary, KindGeoPoint:
		return true
	case KindLong:
		return isInteger(value, 64)
	case KindInt:
		return isInteger(value, 32)
	case KindShort:
		return isInteger(value, 16)
	case KindByte:
		return isInteger(value, 8)
	case KindDouble:
		return isFloat(value, 64)
	case KindFloat:
		return isFloat(value, 32)
	case KindDate:
		return isDate(value)
	case KindBoolean:
		return strings.EqualFold(value, "true") || strings.EqualFold(value, "false")
	case KindIP:
		return isIP(value)
	default:
		panic(fmt.Sprintf("fieldtypes: no validator for kind %q", string(k)))
	}
}

func isInteger(value string, bits int) bool {
	_, err := strconv.ParseInt(value, 10, bits)
	return err == nil
}

func isFloat(value string, bits int) bool {
	f, err := strconv.ParseFloat(value, bits)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isDate(value string) bool {
	if rest, ok := strings.CutPrefix(value, "now"); ok {
		return dateMath.MatchString(rest)
	}
	if anchor, expr, ok := strings.Cut(value, "||"); ok {
		return isDateLiteral(anchor) && dateMath.MatchString(expr)
	}
	return isDateLiteral(value)
}

func isDateLiteral(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	// epoch milliseconds
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

func isIP(value string) bool {
	if _, err := netip.ParseAddr(value); err == nil {
		return true
	}
	_, err := netip.ParsePrefix(value)
	return err == nil
}
