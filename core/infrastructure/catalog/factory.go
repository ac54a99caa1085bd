package catalog

import (
	"context"
	"fmt"

	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	"github.com/hyperterse/querycheck/core/parser"
	apperrors "github.com/hyperterse/querycheck/core/shared/errors"
)

// NewResolver builds the catalog described by cfg. The static file is
// watched for changes until ctx is done.
func NewResolver(ctx context.Context, cfg parser.CatalogConfig) (interfaces.CatalogBackend, error) {
	log := logging.New("catalog")

	primary, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	backend := measure(primary)
	log.Infof("Using %s field catalog", primary.Name())

	var static *StaticResolver
	if s, ok := primary.(*StaticResolver); ok {
		static = s
	}

	if cfg.FallbackStatic && cfg.Backend != parser.BackendStatic {
		fallback, err := openStatic(ctx, cfg.StaticFile)
		if err != nil {
			primary.Close()
			return nil, err
		}
		static = fallback
		backend = NewFallbackResolver(backend, measure(fallback))
		log.Infof("Static catalog %s supplements %s", cfg.StaticFile, primary.Name())
	}

	if cfg.CacheTTL > 0 {
		cached, err := NewCachingResolver(backend, cfg.CacheTTL)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to create catalog cache: %w", err)
		}
		if static != nil {
			static.OnReload(cached.Invalidate)
		}
		backend = cached
	}
	return backend, nil
}

func openBackend(ctx context.Context, cfg parser.CatalogConfig) (interfaces.CatalogBackend, error) {
	switch cfg.Backend {
	case parser.BackendStatic, "":
		return openStatic(ctx, cfg.StaticFile)
	case parser.BackendPostgres:
		return NewPostgresResolver(ctx, cfg.ConnectionString, tableOrDefault(cfg.Table))
	case parser.BackendMySQL:
		return NewMySQLResolver(ctx, cfg.ConnectionString, tableOrDefault(cfg.Table))
	case parser.BackendMongoDB:
		collection := cfg.Collection
		if collection == "" {
			collection = parser.DefaultCollection
		}
		return NewMongoResolver(ctx, cfg.ConnectionString, cfg.Database, collection)
	default:
		return nil, apperrors.NewAppError(apperrors.ErrCodeConfiguration, fmt.Sprintf("unsupported catalog backend '%s'", cfg.Backend), nil)
	}
}

func openStatic(ctx context.Context, path string) (*StaticResolver, error) {
	if path == "" {
		return nil, apperrors.NewAppError(apperrors.ErrCodeConfiguration, "static catalog requires a file", nil)
	}
	static, err := NewStaticResolver(path)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration, "failed to load static catalog", err)
	}
	if err := static.Watch(ctx); err != nil {
		logging.New("catalog:static").Warnf("Changes to %s will not be picked up: %v", path, err)
	}
	return static, nil
}

func tableOrDefault(table string) string {
	if table == "" {
		return parser.DefaultTable
	}
	return table
}
