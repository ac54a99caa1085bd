package search

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Binding is the value bound to a parameter for one request
type Binding struct {
	Value any
}

// Parameter is a named bind parameter referenced as $name$ in a query
type Parameter struct {
	Name         string
	DataType     string
	Binding      *Binding
	DefaultValue any
}

// ParameterProvider looks up bind parameters by name
type ParameterProvider interface {
	Parameter(name string) (Parameter, bool)
}

// Parameters is a list of parameters that provides lookup by name
type Parameters []Parameter

// Parameter returns the first parameter named name
func (p Parameters) Parameter(name string) (Parameter, bool) {
	for _, param := range p {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// TimeRangeType selects how a time range is expressed
type TimeRangeType string

const (
	TimeRangeRelative TimeRangeType = "relative"
	TimeRangeAbsolute TimeRangeType = "absolute"
	TimeRangeKeyword  TimeRangeType = "keyword"
)

// TimeRange is the period a search covers
type TimeRange struct {
	Type TimeRangeType
	// Range is the number of seconds before now for relative ranges; 0 means all time
	Range   int
	From    time.Time
	To      time.Time
	Keyword string
}

// RelativeRange returns a range covering the last seconds seconds
func RelativeRange(seconds int) TimeRange {
	return TimeRange{Type: TimeRangeRelative, Range: seconds}
}

// AbsoluteRange returns a fixed range
func AbsoluteRange(from, to time.Time) TimeRange {
	return TimeRange{Type: TimeRangeAbsolute, From: from.UTC(), To: to.UTC()}
}

// KeywordRange returns a range described by a keyword such as "today"
func KeywordRange(keyword string) TimeRange {
	return TimeRange{Type: TimeRangeKeyword, Keyword: keyword}
}

// Bounds resolves the range against now
func (tr TimeRange) Bounds(now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	switch tr.Type {
	case TimeRangeRelative, "":
		if tr.Range < 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("relative range must not be negative: %d", tr.Range)
		}
		if tr.Range == 0 {
			return time.Unix(0, 0).UTC(), now, nil
		}
		return now.Add(-time.Duration(tr.Range) * time.Second), now, nil
	case TimeRangeAbsolute:
		if tr.To.Before(tr.From) {
			return time.Time{}, time.Time{}, fmt.Errorf("absolute range ends before it starts")
		}
		return tr.From, tr.To, nil
	case TimeRangeKeyword:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		switch strings.ToLower(strings.TrimSpace(tr.Keyword)) {
		case "today":
			return midnight, now, nil
		case "yesterday":
			return midnight.AddDate(0, 0, -1), midnight, nil
		case "last week":
			return now.AddDate(0, 0, -7), now, nil
		case "last month":
			return now.AddDate(0, -1, 0), now, nil
		default:
			return time.Time{}, time.Time{}, fmt.Errorf("unsupported time range keyword '%s'", tr.Keyword)
		}
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported time range type '%s'", tr.Type)
	}
}

// Key returns a stable textual form of the range, usable as a cache key part
func (tr TimeRange) Key() string {
	switch tr.Type {
	case TimeRangeAbsolute:
		return fmt.Sprintf("absolute:%s:%s", tr.From.Format(time.RFC3339Nano), tr.To.Format(time.RFC3339Nano))
	case TimeRangeKeyword:
		return "keyword:" + strings.ToLower(strings.TrimSpace(tr.Keyword))
	default:
		return fmt.Sprintf("relative:%d", tr.Range)
	}
}

// ValidationRequest is the input of a single validation call
type ValidationRequest struct {
	Query      string
	Filter     string
	TimeRange  TimeRange
	Streams    []string
	Parameters Parameters
}

// StreamSet returns the sorted, de-duplicated stream ids
func (r ValidationRequest) StreamSet() []string {
	seen := make(map[string]bool, len(r.Streams))
	out := make([]string, 0, len(r.Streams))
	for _, s := range r.Streams {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CombinedQueryWithFilter returns the query joined with the stream filter
func (r ValidationRequest) CombinedQueryWithFilter() string {
	if strings.TrimSpace(r.Filter) == "" {
		return r.Query
	}
	return "(" + r.Query + ") AND (" + r.Filter + ")"
}
