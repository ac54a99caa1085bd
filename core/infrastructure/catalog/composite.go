package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
)

// CompositeResolver asks several backends concurrently and merges their answers
type CompositeResolver struct {
	backends []interfaces.CatalogBackend
	tolerant bool
}

// NewCompositeResolver requires every backend to answer
func NewCompositeResolver(backends ...interfaces.CatalogBackend) *CompositeResolver {
	return &CompositeResolver{backends: backends}
}

// NewFallbackResolver tolerates failing backends as long as one answers
func NewFallbackResolver(backends ...interfaces.CatalogBackend) *CompositeResolver {
	return &CompositeResolver{backends: backends, tolerant: true}
}

func (c *CompositeResolver) Name() string {
	names := make([]string, len(c.backends))
	for i, backend := range c.backends {
		names[i] = backend.Name()
	}
	return strings.Join(names, "+")
}

func (c *CompositeResolver) FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, tr search.TimeRange) (fieldtypes.FieldTypes, error) {
	results := make([]fieldtypes.FieldTypes, len(c.backends))
	failures := make([]error, len(c.backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, backend := range c.backends {
		g.Go(func() error {
			fields, err := backend.FieldTypesByStreamIDs(gctx, streamIDs, tr)
			if err != nil {
				err = fmt.Errorf("catalog '%s': %w", backend.Name(), err)
				if c.tolerant {
					failures[i] = err
					return nil
				}
				return err
			}
			results[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fieldtypes.FieldTypes{}, err
	}

	merged := fieldtypes.NewFieldTypes()
	answered := 0
	for i := range c.backends {
		if failures[i] != nil {
			continue
		}
		merged = merged.Merge(results[i])
		answered++
	}

	if answered == 0 && len(c.backends) > 0 {
		return fieldtypes.FieldTypes{}, errors.Join(failures...)
	}
	if answered < len(c.backends) {
		logging.New("catalog").Warnf("Serving partial field types: %v", errors.Join(failures...))
	}
	return merged, nil
}

// Close closes every backend, collecting all errors
func (c *CompositeResolver) Close() error {
	var errs []error
	for _, backend := range c.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("catalog '%s': %w", backend.Name(), err))
		}
	}
	return errors.Join(errs...)
}
