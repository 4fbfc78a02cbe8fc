// Package command provides CLI command definitions for credvault.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/cli/config"
	"github.com/veldra/credvault-go/internal/cli/output"
	"github.com/veldra/credvault-go/internal/core/service"
	"github.com/veldra/credvault-go/internal/identity"
	"github.com/veldra/credvault-go/internal/infra/tlsroots"
	"github.com/veldra/credvault-go/internal/storage/badgerkv"
	"github.com/veldra/credvault-go/internal/storage/file"
	"github.com/veldra/credvault-go/internal/storage/memory"
	"github.com/veldra/credvault-go/internal/telemetry/logger"
	"github.com/veldra/credvault-go/internal/telemetry/metric"
	"github.com/veldra/credvault-go/pkg/clientid"
	"github.com/veldra/credvault-go/pkg/crypto/keyring"
	"github.com/veldra/credvault-go/pkg/crypto/sealed"
	"github.com/veldra/credvault-go/pkg/kv"
)

// vault bundles the wired credential stack for a command invocation.
type vault struct {
	ctx      context.Context
	cfg      *config.CLIConfig
	log      logger.Logger
	store    kv.Store
	creds    *service.CredentialStore
	client   *identity.Client
	coord    *service.RefreshCoordinator
	verifier *service.VerificationService

	closers []func() error
}

// openVault loads configuration and wires storage, crypto and the
// backend client. Callers must Close it.
func openVault(c *cli.Context) (*vault, error) {
	flags := ParseGlobalFlags(c)

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.Server != "" {
		cfg.Backend.URL = flags.Server
	}
	if flags.Output != "" {
		if _, err := output.ParseFormat(flags.Output); err != nil {
			return nil, err
		}
		cfg.Output = flags.Output
	}

	logLevel := cfg.Log.Level
	if flags.Verbose {
		logLevel = "debug"
	}
	log, err := logger.New(logger.Config{Level: logLevel, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	ctx := logger.WithOperation(c.Context, c.Command.Name)
	v := &vault{ctx: ctx, cfg: cfg, log: log}

	if err := v.openStorage(); err != nil {
		return nil, err
	}

	ring := keyring.New(v.store, cfg.Backend.URL, clientid.Fingerprint())
	key, err := ring.Key()
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("derive key: %w", err)
	}
	if ring.Degraded() {
		log.Warn("key derivation degraded, using fallback salt")
	}
	codec, err := sealed.NewCodec(key)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	v.creds = service.NewCredentialStore(v.store, codec,
		service.WithStoreLogger(log),
		service.WithStoreMetrics(metric.Global()),
	)

	// The transport is wired after the coordinator exists; requests only
	// flow once openVault returns.
	transport := &identity.AuthTransport{Logger: log}
	httpClient := &http.Client{
		Timeout:   cfg.Backend.Timeout,
		Transport: transport,
	}
	if err := v.wireTLS(transport); err != nil {
		v.Close()
		return nil, err
	}

	v.client = identity.NewClient(cfg.Backend.URL,
		identity.WithHTTPClient(httpClient),
		identity.WithClientLogger(log),
	)

	v.coord = service.NewRefreshCoordinator(v.creds, v.client,
		service.WithRefreshInterval(cfg.Agent.RefreshInterval),
		service.WithRefreshLogger(log),
		service.WithRefreshMetrics(metric.Global()),
	)
	v.verifier = service.NewVerificationService(v.creds, v.client,
		service.WithVerificationLogger(log),
		service.WithVerificationMetrics(metric.Global()),
	)

	transport.Tokens = v.creds
	transport.Coordinator = v.coord

	v.creds.Load(v.ctx)
	return v, nil
}

// wireTLS applies custom trust roots and an optional client keypair to
// the transport. The keypair hot-reloads so a long-running agent picks
// up certificate rotation.
func (v *vault) wireTLS(transport *identity.AuthTransport) error {
	if v.cfg.Backend.CAFile == "" && v.cfg.Backend.ClientCert == "" {
		return nil
	}

	pool, err := tlsroots.NewPool()
	if err != nil {
		return fmt.Errorf("load system roots: %w", err)
	}
	if v.cfg.Backend.CAFile != "" {
		if err := pool.AddCertFile(v.cfg.Backend.CAFile); err != nil {
			return fmt.Errorf("load backend CA: %w", err)
		}
	}
	tlsConfig := pool.TLSConfig()

	if v.cfg.Backend.ClientCert != "" {
		watcher, err := tlsroots.NewWatcher(v.cfg.Backend.ClientCert, v.cfg.Backend.ClientKey,
			tlsroots.WithLogger(slog.Default()),
		)
		if err != nil {
			return fmt.Errorf("load client keypair: %w", err)
		}
		watcher.StartAsync()
		v.closers = append(v.closers, func() error {
			watcher.Stop()
			return nil
		})
		tlsConfig.GetClientCertificate = watcher.GetClientCertificate
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsConfig
	transport.Base = base
	return nil
}

// openStorage opens the configured persistence engine.
func (v *vault) openStorage() error {
	switch v.cfg.Storage.Engine {
	case config.EngineBadger:
		store, err := badgerkv.NewStore(badgerkv.Config{
			Dir:        v.cfg.StatePath(),
			SyncWrites: v.cfg.Storage.SyncWrites,
		}, slog.Default())
		if err != nil {
			return fmt.Errorf("open badger store: %w", err)
		}
		v.store = store
		v.closers = append(v.closers, store.Close)
	case config.EngineMemory:
		v.store = memory.NewStore()
	default:
		store, err := file.NewStore(v.cfg.StatePath())
		if err != nil {
			return fmt.Errorf("open state file: %w", err)
		}
		v.store = store
	}
	return nil
}

// Close flushes pending writes and releases storage.
func (v *vault) Close() error {
	var firstErr error
	if v.creds != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := v.creds.Flushed(ctx); err != nil {
			firstErr = err
		}
		cancel()
		v.creds.Close()
	}
	for i := len(v.closers) - 1; i >= 0; i-- {
		if err := v.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
