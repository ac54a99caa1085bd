package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperterse/querycheck/core/infrastructure/di"
	transporthttp "github.com/hyperterse/querycheck/core/infrastructure/transport/http"
	"github.com/hyperterse/querycheck/core/logger"
	"github.com/hyperterse/querycheck/core/observability"
	"github.com/hyperterse/querycheck/core/parser"
)

// Runtime represents the querycheck server
type Runtime struct {
	mu           sync.Mutex
	config       *parser.Config
	version      string
	preset       *di.Container
	newContainer func(context.Context, *parser.Config) (*di.Container, error)
	active       *activeContainer

	ctx    context.Context
	cancel context.CancelFunc

	httpServer *transporthttp.Server
	providers  *observability.Providers
}

// NewRuntime creates a new runtime instance
func NewRuntime(cfg *parser.Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		cfg = parser.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runtime{
		config:       cfg,
		version:      "dev",
		newContainer: di.NewContainer,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(r)
	}

	container := r.preset
	if container == nil {
		var err error
		container, err = r.newContainer(ctx, cfg)
		if err != nil {
			cancel()
			return nil, err
		}
	}
	r.active = newActiveContainer(container)

	return r, nil
}

// Start starts the runtime server and blocks until SIGTERM/SIGINT
func (r *Runtime) Start() error {
	if err := r.StartAsync(); err != nil {
		return err
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return r.Stop()
}

// StartAsync starts the runtime server without blocking
func (r *Runtime) StartAsync() error {
	log := logger.New("runtime")

	providers, err := observability.Setup(r.ctx, r.version)
	if err != nil {
		return log.Errorf("failed to set up telemetry: %w", err)
	}
	r.providers = providers

	cfg := r.config
	server := transporthttp.NewServer(transporthttp.ServerOptions{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	routeOpts := transporthttp.RouteOptions{
		Port:       cfg.Server.Port,
		RateLimit:  cfg.RateLimit.Limit,
		RateWindow: cfg.RateLimit.Window,
	}
	if r.active.container().RateLimiter != nil {
		routeOpts.RateLimiter = r.active
	}
	transporthttp.RegisterRoutes(server.Router(), r.active, routeOpts)

	if err := server.StartAsync(); err != nil {
		return log.Errorf("failed to start HTTP server: %w", err)
	}
	r.httpServer = server
	return nil
}

// Addr returns the address the HTTP server listens on
func (r *Runtime) Addr() string {
	if r.httpServer == nil {
		return ""
	}
	return r.httpServer.Addr()
}

// ReloadConfig rebuilds the catalog, validation service and rate limiter
// from cfg without restarting the HTTP server. The previous container is
// closed once the requests using it have finished. Server and rate limit
// settings only change on restart.
func (r *Runtime) ReloadConfig(cfg *parser.Config) error {
	log := logger.New("runtime")
	log.Info("Reloading configuration...")

	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Server.Port != r.config.Server.Port {
		log.Warnf("Port change to %s takes effect after a restart", cfg.Server.Port)
	}
	if cfg.RateLimit.Enabled() != r.config.RateLimit.Enabled() ||
		cfg.RateLimit.Limit != r.config.RateLimit.Limit || cfg.RateLimit.Window != r.config.RateLimit.Window {
		log.Warnf("Rate limit changes take effect after a restart")
	}

	container, err := r.newContainer(r.ctx, cfg)
	if err != nil {
		return log.Errorf("failed to reload configuration: %w", err)
	}

	previous := r.active.swap(container)
	if err := previous.retire(); err != nil {
		log.Warnf("Errors closing previous catalog: %v", err)
	}

	log.Success("Configuration reloaded successfully")
	return nil
}

// Stop stops the runtime server gracefully
func (r *Runtime) Stop() error {
	log := logger.New("runtime")
	log.Info("Shutting down server...")

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.httpServer != nil {
		errs = append(errs, r.httpServer.Stop())
		r.httpServer = nil
	}

	r.cancel()
	if err := r.active.current.Load().retire(); err != nil {
		log.Warnf("Errors closing catalog: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs = append(errs, r.providers.Shutdown(ctx))

	log.Debugf("Shutdown complete")
	return errors.Join(errs...)
}
