package server

import (
	"context"

	"github.com/hyperterse/querycheck/core/infrastructure/di"
	"github.com/hyperterse/querycheck/core/parser"
)

type RuntimeOption func(*Runtime)

// WithVersion sets the version reported to telemetry
func WithVersion(version string) RuntimeOption {
	return func(r *Runtime) {
		r.version = version
	}
}

// WithContainer uses an already wired container instead of building one
// from the configuration
func WithContainer(container *di.Container) RuntimeOption {
	return func(r *Runtime) {
		r.preset = container
	}
}

// WithContainerFactory replaces di.NewContainer for the initial container
// and for every reload
func WithContainerFactory(factory func(context.Context, *parser.Config) (*di.Container, error)) RuntimeOption {
	return func(r *Runtime) {
		r.newContainer = factory
	}
}
