package interfaces

import (
	"context"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
)

// FieldTypesResolver resolves the fields known for a set of streams
type FieldTypesResolver interface {
	// FieldTypesByStreamIDs returns the fields present in any of the streams
	// during the time range
	FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, tr search.TimeRange) (fieldtypes.FieldTypes, error)
}

// CatalogBackend is a field types resolver that holds resources
type CatalogBackend interface {
	FieldTypesResolver

	// Name identifies the backend in logs and errors
	Name() string

	// Close releases the backend's resources
	Close() error
}
