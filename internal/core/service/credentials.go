// Package service provides domain services for CredVault.
//
// CredentialStore holds the authoritative in-memory session and persists
// an encrypted copy through a write-behind queue.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/veldra/credvault-go/internal/core/domain"
	"github.com/veldra/credvault-go/internal/telemetry/logger"
	"github.com/veldra/credvault-go/internal/telemetry/metric"
	"github.com/veldra/credvault-go/pkg/crypto/sealed"
	"github.com/veldra/credvault-go/pkg/kv"
)

// Additional data binding sealed blobs to their field, so an access blob
// cannot be replayed into the refresh slot or vice versa.
const (
	aadAccessToken  = "credvault:access"
	aadRefreshToken = "credvault:refresh"
)

// DefaultPersistQueueSize bounds the write-behind queue. Writes block once
// the queue is full, which only happens if the storage backend stalls.
const DefaultPersistQueueSize = 16

// persistedState is the JSON layout stored under domain.AuthStorageKey.
type persistedState struct {
	State persistedSession `json:"state"`
}

type persistedSession struct {
	AccessToken  string       `json:"accessToken,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	User         *domain.User `json:"user,omitempty"`
}

// jobKind discriminates write-behind queue entries.
type jobKind int

const (
	jobWrite jobKind = iota
	jobClear
	jobFlush
)

// persistJob is one pending durable operation. Write jobs carry a
// plaintext snapshot; encryption happens on the worker goroutine.
type persistJob struct {
	kind    jobKind
	session domain.Session
	done    chan error
}

// CredentialStore is the single shared session holder.
//
// All mutation goes through SetSession, Clear and UpdateUser; the
// in-memory update is synchronous and immediately observable, while the
// encrypted durable write trails behind on a background worker.
type CredentialStore struct {
	store   kv.Store
	codec   *sealed.Codec
	logger  logger.Logger
	metrics *metric.Registry

	mu      sync.RWMutex
	session domain.Session

	loadOnce sync.Once

	jobs chan persistJob

	closeOnce sync.Once
	closedMu  sync.Mutex
	closed    bool
	workerWG  sync.WaitGroup
}

// StoreOption configures a CredentialStore.
type StoreOption func(*CredentialStore)

// WithStoreLogger sets the logger.
func WithStoreLogger(l logger.Logger) StoreOption {
	return func(s *CredentialStore) { s.logger = l }
}

// WithStoreMetrics sets the metrics registry.
func WithStoreMetrics(m *metric.Registry) StoreOption {
	return func(s *CredentialStore) { s.metrics = m }
}

// WithPersistQueueSize overrides the write-behind queue capacity.
func WithPersistQueueSize(n int) StoreOption {
	return func(s *CredentialStore) {
		if n > 0 {
			s.jobs = make(chan persistJob, n)
		}
	}
}

// NewCredentialStore creates a store over the given storage and codec and
// starts the persistence worker.
func NewCredentialStore(store kv.Store, codec *sealed.Codec, opts ...StoreOption) *CredentialStore {
	s := &CredentialStore{
		store:  store,
		codec:  codec,
		logger: logger.Default(),
		jobs:   make(chan persistJob, DefaultPersistQueueSize),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.workerWG.Add(1)
	go s.persistWorker()

	return s
}

// ============================================================================
// Load
// ============================================================================

// Load reads any persisted session, decrypts both tokens and installs the
// result as the in-memory session.
//
// Any storage or cryptographic failure degrades to the empty session
// (fail-closed) and discards the persisted record. Loaded is set exactly
// once as the terminal step, regardless of outcome. Subsequent calls
// return the current session without touching storage.
func (s *CredentialStore) Load(ctx context.Context) domain.Session {
	s.loadOnce.Do(func() {
		loaded := s.loadPersisted()

		s.mu.Lock()
		s.session = loaded
		s.session.Loaded = true
		s.mu.Unlock()
	})

	return s.Session()
}

// loadPersisted reads and decrypts the stored record. Returns the empty
// session on any failure and removes the unusable record.
func (s *CredentialStore) loadPersisted() domain.Session {
	// 1. Read the raw record
	raw, err := s.store.GetItem(domain.AuthStorageKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("credential load: storage read failed", "error", err)
		}
		return domain.Empty()
	}

	// 2. Parse the JSON envelope
	var state persistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.Warn("credential load: malformed record, discarding")
		s.discardPersisted()
		return domain.Empty()
	}

	if state.State.AccessToken == "" && state.State.RefreshToken == "" {
		return domain.Empty()
	}

	// 3. Decrypt both tokens; either failing means the whole record is
	// unusable (wrong key, tampering, foreign data)
	var access, refresh string
	if state.State.AccessToken != "" {
		plain, err := s.codec.Decrypt(state.State.AccessToken, aadAccessToken)
		if err != nil {
			s.noteDecryptFailure()
			s.discardPersisted()
			return domain.Empty()
		}
		access = plain
	}
	if state.State.RefreshToken != "" {
		plain, err := s.codec.Decrypt(state.State.RefreshToken, aadRefreshToken)
		if err != nil {
			s.noteDecryptFailure()
			s.discardPersisted()
			return domain.Empty()
		}
		refresh = plain
	}

	// 4. A placeholder access token is as good as none. A record holding
	// only a refresh token is still loaded so the proactive refresh loop
	// can recover the session.
	if !domain.ValidToken(access) {
		if refresh == "" {
			s.discardPersisted()
			return domain.Empty()
		}
		return domain.Session{
			RefreshToken: refresh,
			User:         state.State.User,
		}
	}

	return domain.Session{
		AccessToken:   access,
		RefreshToken:  refresh,
		User:          state.State.User,
		Authenticated: true,
	}
}

func (s *CredentialStore) noteDecryptFailure() {
	s.logger.Warn("credential load: decryption failed, treating as logged out")
	if s.metrics != nil {
		s.metrics.DecryptFailures.Inc()
	}
}

func (s *CredentialStore) discardPersisted() {
	if err := s.store.RemoveItem(domain.AuthStorageKey); err != nil {
		s.logger.Warn("credential load: could not remove unusable record", "error", err)
	}
}

// ============================================================================
// Reads
// ============================================================================

// Session returns a deep copy of the current session.
func (s *CredentialStore) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// AccessToken returns the current bearer token, or empty when logged out.
func (s *CredentialStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// RefreshToken returns the current refresh token, or empty.
func (s *CredentialStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

// ============================================================================
// Mutations
// ============================================================================

// SetSession installs a new authenticated session.
//
// The in-memory update is synchronous: the next statement in the caller
// observes the new state. The encrypted durable write is queued behind it.
// An empty or placeholder access token is rejected with
// domain.ErrTokenInvalidLocal and changes nothing.
func (s *CredentialStore) SetSession(accessToken string, user *domain.User, refreshToken string) error {
	// 1. Reject unusable tokens at the boundary
	if !domain.ValidToken(accessToken) {
		s.logger.Warn("set session rejected: invalid or placeholder token")
		return domain.ErrTokenInvalidLocal
	}
	if refreshToken != "" && !domain.ValidToken(refreshToken) {
		s.logger.Warn("set session rejected: invalid refresh token")
		return domain.ErrTokenInvalidLocal
	}

	// 2. Update in-memory state atomically
	s.mu.Lock()
	loaded := s.session.Loaded
	s.session = domain.Session{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		User:          user.Clone(),
		Authenticated: true,
		Loaded:        loaded,
	}
	snapshot := s.session.Clone()
	s.mu.Unlock()

	// 3. Queue the encrypt-and-persist write
	s.enqueue(persistJob{kind: jobWrite, session: snapshot})
	return nil
}

// Clear resets to the empty session and deletes the persisted record.
// Idempotent; Loaded is preserved.
func (s *CredentialStore) Clear() {
	s.mu.Lock()
	loaded := s.session.Loaded
	s.session = domain.Empty()
	s.session.Loaded = loaded
	s.mu.Unlock()

	s.enqueue(persistJob{kind: jobClear})
}

// UpdateUser merges partial profile fields into the current user without
// touching tokens. No-op when no session exists.
func (s *CredentialStore) UpdateUser(partial *domain.User) {
	s.mu.Lock()
	if s.session.IsEmpty() {
		s.mu.Unlock()
		return
	}
	if s.session.User == nil {
		s.session.User = &domain.User{}
	}
	s.session.User.Merge(partial)
	snapshot := s.session.Clone()
	s.mu.Unlock()

	s.enqueue(persistJob{kind: jobWrite, session: snapshot})
}

// ============================================================================
// Write-behind queue
// ============================================================================

// Flushed blocks until every durable write queued before the call has been
// applied, or the context is done. Intended for tests and shutdown paths.
func (s *CredentialStore) Flushed(ctx context.Context) error {
	done := make(chan error, 1)
	if !s.enqueue(persistJob{kind: jobFlush, done: done}) {
		return nil
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker. Mutations after Close are
// applied in memory only.
func (s *CredentialStore) Close() {
	s.closeOnce.Do(func() {
		s.closedMu.Lock()
		s.closed = true
		s.closedMu.Unlock()

		close(s.jobs)
		s.workerWG.Wait()
	})
}

// enqueue adds a job unless the store is closed. Reports whether the job
// was accepted.
func (s *CredentialStore) enqueue(job persistJob) bool {
	s.closedMu.Lock()
	defer s.closedMu.Unlock()
	if s.closed {
		return false
	}

	s.jobs <- job
	if s.metrics != nil {
		s.metrics.PersistQueueDepth.Set(float64(len(s.jobs)))
	}
	return true
}

// persistWorker drains the queue in order. FIFO processing means a flush
// sentinel observes every write queued before it.
func (s *CredentialStore) persistWorker() {
	defer s.workerWG.Done()

	for job := range s.jobs {
		switch job.kind {
		case jobWrite:
			if err := s.persist(job.session); err != nil {
				s.logger.Error("durable write failed", "error", err)
				if s.metrics != nil {
					s.metrics.PersistErrors.Inc()
				}
			}
		case jobClear:
			if err := s.store.RemoveItem(domain.AuthStorageKey); err != nil {
				s.logger.Error("durable clear failed", "error", err)
				if s.metrics != nil {
					s.metrics.PersistErrors.Inc()
				}
			}
		case jobFlush:
			job.done <- nil
		}

		if s.metrics != nil {
			s.metrics.PersistQueueDepth.Set(float64(len(s.jobs)))
		}
	}
}

// persist encrypts both tokens and writes the JSON envelope.
func (s *CredentialStore) persist(session domain.Session) error {
	accessBlob, err := s.codec.Encrypt(session.AccessToken, aadAccessToken)
	if err != nil {
		return err
	}

	var refreshBlob string
	if session.RefreshToken != "" {
		refreshBlob, err = s.codec.Encrypt(session.RefreshToken, aadRefreshToken)
		if err != nil {
			return err
		}
	}

	record := persistedState{
		State: persistedSession{
			AccessToken:  accessBlob,
			RefreshToken: refreshBlob,
			User:         session.User,
		},
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.store.SetItem(domain.AuthStorageKey, string(data))
}
