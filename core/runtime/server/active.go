package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/di"
)

// activeContainer routes validation and rate limit calls to the current
// container. The HTTP routes hold it for the life of the server, so a reload
// only swaps what it points at.
type activeContainer struct {
	current atomic.Pointer[generation]
}

// generation is one container plus the calls currently using it
type generation struct {
	mu        sync.RWMutex
	retired   bool
	container *di.Container
}

func newActiveContainer(c *di.Container) *activeContainer {
	a := &activeContainer{}
	a.current.Store(&generation{container: c})
	return a
}

// acquire returns the current generation read-locked. The caller must
// release it with RUnlock.
func (a *activeContainer) acquire() *generation {
	for {
		gen := a.current.Load()
		gen.mu.RLock()
		if !gen.retired {
			return gen
		}
		// swapped out between Load and RLock
		gen.mu.RUnlock()
	}
}

func (a *activeContainer) container() *di.Container {
	return a.current.Load().container
}

// swap installs c and returns the previous generation, which the caller retires
func (a *activeContainer) swap(c *di.Container) *generation {
	return a.current.Swap(&generation{container: c})
}

// retire waits for in-flight calls on g to return, then closes its container
func (g *generation) retire() error {
	g.mu.Lock()
	g.retired = true
	g.mu.Unlock()
	return g.container.Close()
}

func (a *activeContainer) Validate(ctx context.Context, req search.ValidationRequest) (search.ValidationResponse, error) {
	gen := a.acquire()
	defer gen.mu.RUnlock()
	return gen.container.ValidationService.Validate(ctx, req)
}

// Allow admits every request when the current container has no limiter
func (a *activeContainer) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	gen := a.acquire()
	defer gen.mu.RUnlock()
	if gen.container.RateLimiter == nil {
		return true, nil
	}
	return gen.container.RateLimiter.Allow(ctx, key, limit, window)
}
