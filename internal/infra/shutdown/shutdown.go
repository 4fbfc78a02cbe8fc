// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler coordinates graceful shutdown of the agent. Hooks registered
// with OnShutdown run in reverse order once SIGINT or SIGTERM arrives,
// sharing a single drain deadline.
type Handler struct {
	timeout time.Duration
	log     *slog.Logger

	mu    sync.Mutex
	hooks []func(context.Context) error
	done  chan struct{}
}

// NewHandler creates a shutdown handler with the given drain timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		log:     slog.Default(),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks run in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Wait blocks until a termination signal arrives, then runs the
// registered hooks. Hook errors do not stop the remaining hooks; all
// errors are joined into the return value.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	signal.Stop(sigCh)

	h.log.Info("shutdown signal received",
		slog.String("signal", sig.String()),
		slog.Duration("timeout", h.timeout))

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			h.log.Warn("shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	close(h.done)
	return errors.Join(errs...)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
