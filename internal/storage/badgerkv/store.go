// Package badgerkv provides a Badger-backed key-value store.
package badgerkv

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/veldra/credvault-go/pkg/kv"
)

// DefaultGCInterval is how often value log garbage collection runs.
const DefaultGCInterval = 10 * time.Minute

// Config configures the Badger store.
type Config struct {
	// Dir is the directory for Badger data files.
	Dir string

	// SyncWrites forces fsync on every write. Credential writes are small
	// and infrequent, so this defaults on.
	SyncWrites bool

	// GCInterval overrides the value log GC interval. Zero means default.
	GCInterval time.Duration
}

// Store implements kv.Store on top of Badger v3.
//
// It is the durable storage option for long-lived agent processes where a
// single JSON file would churn too much.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStore opens a Badger database at cfg.Dir.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badgerkv: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerkv: open db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	interval := cfg.GCInterval
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	go s.gcLoop(interval)

	logger.Info("badger store opened", "dir", cfg.Dir, "gc_interval", interval)
	return s, nil
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(key string) (string, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return kv.ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// SetItem stores value under key.
func (s *Store) SetItem(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *Store) RemoveItem(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close stops background GC and closes the database.
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badgerkv: close db: %w", err)
	}
	return nil
}

// gcLoop runs periodic value log garbage collection.
func (s *Store) gcLoop(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.logger.Debug("value log gc", "error", err)
					}
					break
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
