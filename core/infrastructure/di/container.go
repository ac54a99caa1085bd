package di

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hyperterse/querycheck/core/application/services"
	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/infrastructure/catalog"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	httpmiddleware "github.com/hyperterse/querycheck/core/infrastructure/transport/http/middleware"
	"github.com/hyperterse/querycheck/core/parser"
	"github.com/hyperterse/querycheck/core/querylang"
	"github.com/hyperterse/querycheck/core/runtime/decorators"
)

// Container holds all dependencies
type Container struct {
	Config            *parser.Config
	Catalog           interfaces.CatalogBackend
	Parser            interfaces.QueryParser
	Decorator         interfaces.QueryDecorator
	ValidationService interfaces.ValidationService
	RateLimiter       httpmiddleware.RateLimiter
}

// NewContainer wires the catalog, parser and decorators described by cfg
// into a validation service. The static catalog is watched until ctx is done.
func NewContainer(ctx context.Context, cfg *parser.Config) (*Container, error) {
	log := logging.New("di")

	backend, err := catalog.NewResolver(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}

	queryParser := querylang.New(querylang.WithLeadingWildcards(cfg.Validation.LeadingWildcardsAllowed()))
	decorator := decorators.NewChain(decorators.NewParameterDecorator())

	c := &Container{
		Config:            cfg,
		Catalog:           backend,
		Parser:            queryParser,
		Decorator:         decorator,
		ValidationService: services.NewValidationService(queryParser, backend, decorator),
	}

	if cfg.RateLimit.Enabled() {
		limiter, err := httpmiddleware.DialRedisRateLimiter(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to set up rate limiting: %w", err)
		}
		c.RateLimiter = limiter
		log.Infof("Rate limiting to %d request(s) per %s", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	return c, nil
}

// Close closes all resources
func (c *Container) Close() error {
	var errs []error
	if closer, ok := c.RateLimiter.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.Catalog != nil {
		errs = append(errs, c.Catalog.Close())
	}
	return errors.Join(errs...)
}
