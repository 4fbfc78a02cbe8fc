// Package config defines the CLI configuration structure.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veldra/credvault-go/internal/cli/output"
)

// CLIConfig is the configuration for the credvault CLI and agent.
type CLIConfig struct {
	Backend BackendConfig `koanf:"backend" yaml:"backend"`
	Storage StorageConfig `koanf:"storage" yaml:"storage"`
	Agent   AgentConfig   `koanf:"agent" yaml:"agent"`
	Log     LogConfig     `koanf:"log" yaml:"log"`

	// Output is the default output format: table, json, yaml.
	Output string `koanf:"output" yaml:"output"`
}

// BackendConfig describes the identity backend connection.
type BackendConfig struct {
	// URL is the backend base URL. A bare host defaults to https.
	URL string `koanf:"url" yaml:"url"`

	// CAFile optionally points at a PEM bundle of extra trust roots,
	// for private deployments with an internal CA.
	CAFile string `koanf:"ca_file" yaml:"ca_file"`

	// ClientCert and ClientKey optionally hold a client keypair for
	// backends that require mutual TLS. Both must be set together.
	ClientCert string `koanf:"client_cert" yaml:"client_cert"`
	ClientKey  string `koanf:"client_key" yaml:"client_key"`

	// Timeout bounds general backend requests.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// StorageConfig describes where credentials are persisted.
type StorageConfig struct {
	// Engine selects the persistence backend: file, badger or memory.
	Engine string `koanf:"engine" yaml:"engine"`

	// Path is the state file (file engine) or database directory
	// (badger engine). Empty means a default under the config dir.
	Path string `koanf:"path" yaml:"path"`

	// SyncWrites forces fsync on every write (badger engine only).
	SyncWrites bool `koanf:"sync_writes" yaml:"sync_writes"`
}

// AgentConfig configures the long-running agent mode.
type AgentConfig struct {
	// RefreshInterval is how often the agent checks token health.
	RefreshInterval time.Duration `koanf:"refresh_interval" yaml:"refresh_interval"`

	// MetricsAddress is the Prometheus listen address, e.g. 127.0.0.1:9109.
	MetricsAddress string `koanf:"metrics_address" yaml:"metrics_address"`

	// MetricsEnabled turns the metrics endpoint on.
	MetricsEnabled bool `koanf:"metrics_enabled" yaml:"metrics_enabled"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level" yaml:"level"`

	// Format is text or json.
	Format string `koanf:"format" yaml:"format"`
}

// Storage engine names.
const (
	EngineFile   = "file"
	EngineBadger = "badger"
	EngineMemory = "memory"
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Backend: BackendConfig{
			URL:     "https://id.servicehub.example.com",
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Engine: EngineFile,
		},
		Agent: AgentConfig{
			RefreshInterval: 5 * time.Minute,
			MetricsAddress:  "127.0.0.1:9109",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: "table",
	}
}

// Validate checks the configuration for inconsistencies.
func (c *CLIConfig) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if (c.Backend.ClientCert == "") != (c.Backend.ClientKey == "") {
		return fmt.Errorf("backend.client_cert and backend.client_key must be set together")
	}
	switch c.Storage.Engine {
	case EngineFile, EngineBadger, EngineMemory:
	default:
		return fmt.Errorf("storage.engine %q: must be file, badger or memory", c.Storage.Engine)
	}
	if c.Agent.RefreshInterval <= 0 {
		return fmt.Errorf("agent.refresh_interval must be positive")
	}
	if _, err := output.ParseFormat(c.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// StatePath returns the effective storage path, applying engine-specific
// defaults under the user config dir.
func (c *CLIConfig) StatePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	base := DefaultConfigDir()
	if c.Storage.Engine == EngineBadger {
		return filepath.Join(base, "db")
	}
	return filepath.Join(base, "state.json")
}

// DefaultConfigDir returns the per-user credvault directory.
func DefaultConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".credvault")
}
