// Package command provides CLI command definitions for credvault.
package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/veldra/credvault-go/internal/cli/config"
	"github.com/veldra/credvault-go/internal/infra/confloader"
	"github.com/veldra/credvault-go/internal/infra/shutdown"
	"github.com/veldra/credvault-go/internal/telemetry/logger"
	"github.com/veldra/credvault-go/internal/telemetry/metric"
)

// AgentCommand returns the long-running agent command.
//
// The agent keeps the session fresh in the background: it runs the
// refresh loop, serves Prometheus metrics, hot-reloads the log level on
// config file changes, and shuts down cleanly on SIGINT/SIGTERM.
func AgentCommand() *cli.Command {
	return &cli.Command{
		Name:   "agent",
		Usage:  "Run the background session agent",
		Action: agentAction,
	}
}

func agentAction(c *cli.Context) error {
	v, err := openVault(c)
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, cancel := context.WithCancel(v.ctx)
	defer cancel()

	handler := shutdown.NewHandler(v.cfg.Agent.ShutdownTimeout)

	// Metrics endpoint.
	if v.cfg.Agent.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metric.Global().Handler())
		srv := &http.Server{Addr: v.cfg.Agent.MetricsAddress, Handler: mux}

		go func() {
			v.log.Info("metrics endpoint listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				v.log.Error("metrics endpoint failed", "error", err)
			}
		}()
		handler.OnShutdown(srv.Shutdown)
	}

	// Config hot reload. Only the log level can change live; storage
	// and backend wiring need a restart.
	configPath := ParseGlobalFlags(c).ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	watcher, err := confloader.NewWatcher()
	if err != nil {
		return fmt.Errorf("init config watcher: %w", err)
	}
	if err := watcher.Watch(configPath); err != nil {
		v.log.Warn("config watch unavailable", "path", configPath, "error", err)
	} else {
		watcher.OnChange(func(path string) {
			cfg, err := config.Load(configPath)
			if err != nil {
				v.log.Warn("config reload failed", "error", err)
				return
			}
			logger.SetLevel(cfg.Log.Level)
			v.log.Info("config reloaded", "log_level", cfg.Log.Level)
		})
		watcher.StartAsync()
	}
	handler.OnShutdown(func(context.Context) error { return watcher.Stop() })

	// Refresh loop.
	go v.coord.Run(ctx)
	handler.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})

	v.log.Info("agent started",
		"backend", v.client.BaseURL(),
		"refresh_interval", v.cfg.Agent.RefreshInterval,
	)
	return handler.Wait()
}
