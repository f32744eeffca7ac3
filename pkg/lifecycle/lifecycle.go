// Package lifecycle coordinates the startup and shutdown of infrastructure
// systems around a single command invocation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Hook is a named startup or shutdown step.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Coordinator runs startup hooks concurrently and shutdown hooks in reverse
// registration order. Its context is cancelled when shutdown begins.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	startup  []namedHook
	shutdown []namedHook
	started  bool
	stopped  bool
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a hook to run during Start.
func (c *Coordinator) OnStartup(name string, fn Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startup = append(c.startup, namedHook{name, fn})
}

// OnShutdown registers a hook to run during Shutdown. Hooks registered later
// run first.
func (c *Coordinator) OnShutdown(name string, fn Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = append(c.shutdown, namedHook{name, fn})
}

// Start runs every startup hook concurrently and waits for them. The first
// failure cancels the others and is returned. Start is a no-op after the
// first successful call.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	hooks := slices.Clone(c.startup)
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hooks {
		g.Go(func() error {
			if err := h.fn(gctx); err != nil {
				return fmt.Errorf("startup %s: %w", h.name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

// Started reports whether Start has completed successfully.
func (c *Coordinator) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.stopped
}

// Shutdown cancels the context and runs the shutdown hooks within timeout.
// Hook errors are joined. Calls after the first return nil.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	hooks := slices.Clone(c.shutdown)
	c.mu.Unlock()

	c.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, h := range slices.Backward(hooks) {
			if err := h.fn(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", h.name, err))
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
