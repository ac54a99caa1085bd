// Package catalog resolves the field types known for a set of streams from
// a static file, a SQL database or MongoDB.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
)

// fieldRow is one field observed in one stream
type fieldRow struct {
	Name     string
	Physical string
}

// kindOf accepts kind names as well as storage mapping types
func kindOf(typeName string) fieldtypes.Kind {
	if kind, err := fieldtypes.ParseKind(typeName); err == nil {
		return kind
	}
	return fieldtypes.FromPhysical(typeName)
}

func fieldTypesFromRows(rows []fieldRow) fieldtypes.FieldTypes {
	types := make([]fieldtypes.FieldType, 0, len(rows))
	for _, row := range rows {
		types = append(types, fieldtypes.New(row.Name, kindOf(row.Physical)))
	}
	return fieldtypes.NewFieldTypes(types...)
}

// timeBounds resolves tr for a database lookup
func timeBounds(tr search.TimeRange) (time.Time, time.Time, error) {
	from, to, err := tr.Bounds(time.Now())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range: %w", err)
	}
	return from, to, nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("field type lookup cancelled: %w", err)
	}
	return nil
}
