// Package service provides domain services for CredVault.
//
// RefreshCoordinator serializes token refresh: of N concurrent calls that
// observe an expired credential, exactly one refresh reaches the backend.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/veldra/credvault-go/internal/core/domain"
	"github.com/veldra/credvault-go/internal/telemetry/logger"
	"github.com/veldra/credvault-go/internal/telemetry/metric"
)

// DefaultRefreshInterval is how often the proactive loop checks whether a
// refresh is needed.
const DefaultRefreshInterval = 5 * time.Minute

// RefreshResult is a successful token exchange.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// Refresher performs the live refresh call against the identity backend.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (RefreshResult, error)
}

// waitResult is what a blocked caller receives when the in-flight refresh
// settles.
type waitResult struct {
	token string
	err   error
}

// RefreshCoordinator is the single-flight refresh controller.
//
// State machine: Idle -> Refreshing -> Idle. The refreshing flag is set
// before the network call starts and cleared only after the call settles
// and every waiter has been notified, so a re-entrant second refresh can
// never start in the gap. Waiters resolve in registration order.
type RefreshCoordinator struct {
	store     *CredentialStore
	refresher Refresher
	logger    logger.Logger
	metrics   *metric.Registry
	interval  time.Duration
	onLogout  func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan waitResult
}

// CoordinatorOption configures a RefreshCoordinator.
type CoordinatorOption func(*RefreshCoordinator)

// WithRefreshInterval overrides the proactive check interval.
func WithRefreshInterval(d time.Duration) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRefreshLogger sets the logger.
func WithRefreshLogger(l logger.Logger) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.logger = l }
}

// WithRefreshMetrics sets the metrics registry.
func WithRefreshMetrics(m *metric.Registry) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.metrics = m }
}

// WithLogoutHook sets a hook invoked after a terminal refresh failure has
// cleared the session. The consumer uses it to route to re-authentication.
func WithLogoutHook(fn func()) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.onLogout = fn }
}

// NewRefreshCoordinator creates a coordinator over the given store and
// backend refresher.
func NewRefreshCoordinator(store *CredentialStore, refresher Refresher, opts ...CoordinatorOption) *RefreshCoordinator {
	c := &RefreshCoordinator{
		store:     store,
		refresher: refresher,
		logger:    logger.Default(),
		interval:  DefaultRefreshInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ============================================================================
// Refresh entry point
// ============================================================================

// Refresh obtains a fresh access token.
//
// The first caller while Idle performs the live refresh; every concurrent
// caller registers as a waiter and blocks until that refresh settles.
// Returns the new access token, or the error that failed the cycle.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (string, error) {
	// 1. Register or take ownership of the in-flight refresh
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan waitResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.RefreshWaiters.Inc()
			defer c.metrics.RefreshWaiters.Dec()
		}

		// 2a. Block until the in-flight refresh settles
		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	// 2b. This caller owns the refresh
	return c.doRefresh(ctx)
}

// doRefresh performs the live refresh and settles every waiter.
func (c *RefreshCoordinator) doRefresh(ctx context.Context) (string, error) {
	refreshToken := c.store.RefreshToken()

	// 1. Without a refresh token the cycle fails immediately
	if refreshToken == "" {
		return c.fail(domain.ErrNoRefreshToken)
	}

	// 2. One live call to the backend
	result, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return c.fail(domain.ErrRefreshFailed.WithCause(err))
	}
	if !domain.ValidToken(result.AccessToken) {
		return c.fail(domain.ErrRefreshFailed.WithDetails("backend returned no usable token"))
	}

	// 3. Update the store, preserving the user profile. A rotated refresh
	// token replaces the old one; an absent one keeps it.
	newRefresh := result.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	if err := c.store.SetSession(result.AccessToken, c.store.Session().User, newRefresh); err != nil {
		return c.fail(domain.ErrRefreshFailed.WithCause(err))
	}

	c.logger.Info("token refreshed")
	if c.metrics != nil {
		c.metrics.RefreshTotal.WithLabelValues("success").Inc()
	}

	// 4. Resolve waiters FIFO, then return to Idle. The flag clears only
	// after every waiter is notified.
	c.settle(waitResult{token: result.AccessToken})
	return result.AccessToken, nil
}

// fail clears the session, rejects every waiter with the triggering error
// and returns the coordinator to Idle so a later login works normally.
func (c *RefreshCoordinator) fail(cause error) (string, error) {
	c.logger.Warn("token refresh failed, clearing session", "error", cause)
	if c.metrics != nil {
		c.metrics.RefreshTotal.WithLabelValues("failure").Inc()
	}

	c.store.Clear()
	c.settle(waitResult{err: cause})

	if c.onLogout != nil {
		c.onLogout()
	}
	return "", cause
}

// settle delivers the outcome to every waiter in FIFO order and clears the
// refreshing flag.
func (c *RefreshCoordinator) settle(res waitResult) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil

	for _, ch := range waiters {
		ch <- res
	}
	c.refreshing = false
	c.mu.Unlock()
}

// ============================================================================
// Proactive loop
// ============================================================================

// Run drives periodic proactive refresh until the context is cancelled.
//
// A refresh is triggered whenever the access token is missing but a
// refresh token is on hand, such as after a load that recovered only the
// refresh slot. An immediate check runs on startup before the first tick.
func (c *RefreshCoordinator) Run(ctx context.Context) {
	c.checkAndRefresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.checkAndRefresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *RefreshCoordinator) checkAndRefresh(ctx context.Context) {
	session := c.store.Session()
	if domain.ValidToken(session.AccessToken) {
		return
	}
	if session.RefreshToken == "" {
		return
	}

	c.logger.Debug("proactive refresh: access token missing, refresh token present")
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Warn("proactive refresh failed", "error", err)
	}
}
