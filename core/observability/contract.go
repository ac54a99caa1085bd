package observability

import (
	"strings"
)

const (
	AttrTraceID          = "trace_id"
	AttrSpanID           = "span_id"
	AttrRequestID        = "request.id"
	AttrErrorType        = "error.type"
	AttrValidationStatus = "validation.status"
	AttrQueryLength      = "query.length"
	AttrStreamCount      = "query.stream_count"
	AttrCatalogBackend   = "catalog.backend"
)

var secretKeySubstrings = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"connection_string",
	"dsn",
	"redis_url",
}

// RedactAttributeValue masks values for known-sensitive attribute keys.
func RedactAttributeValue(key string, value string) string {
	lower := strings.ToLower(key)
	for _, needle := range secretKeySubstrings {
		if strings.Contains(lower, needle) {
			return "[REDACTED]"
		}
	}
	return value
}
