package catalog

import (
	"context"
	"time"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	"github.com/hyperterse/querycheck/core/observability"
)

// measuredResolver records lookup metrics for one backend
type measuredResolver struct {
	interfaces.CatalogBackend
}

func measure(backend interfaces.CatalogBackend) interfaces.CatalogBackend {
	return measuredResolver{CatalogBackend: backend}
}

func (m measuredResolver) FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, tr search.TimeRange) (fieldtypes.FieldTypes, error) {
	ctx, span := observability.StartSpan(ctx, "catalog."+m.Name())
	defer span.End()

	start := time.Now()
	fields, err := m.CatalogBackend.FieldTypesByStreamIDs(ctx, streamIDs, tr)
	durationMS := float64(time.Since(start).Microseconds()) / 1000
	observability.RecordCatalogLookup(ctx, m.Name(), err == nil, durationMS)

	log := logging.New("catalog:" + m.Name())
	if err != nil {
		span.RecordError(err)
		log.Warnf("Field type lookup for %d stream(s) failed: %v", len(streamIDs), err)
		return fields, err
	}
	log.Debugf("Resolved %d field(s) for %d stream(s) in %.2fms", fields.Len(), len(streamIDs), durationMS)
	return fields, nil
}
