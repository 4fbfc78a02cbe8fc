package tlsroots

import (
	"crypto/tls"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")
	writeTestKeyPair(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.cert == nil {
		t.Error("NewWatcher() did not load the initial keypair")
	}
}

func TestNewWatcher_InvalidKeyPair(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")

	os.WriteFile(certFile, []byte("invalid"), 0644)
	os.WriteFile(keyFile, []byte("invalid"), 0600)

	if _, err := NewWatcher(certFile, keyFile); err == nil {
		t.Error("NewWatcher() expected error for invalid keypair")
	}
}

func TestNewWatcher_NonexistentFiles(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/cert.pem", "/nonexistent/key.pem"); err == nil {
		t.Error("NewWatcher() expected error for nonexistent files")
	}
}

func TestWatcher_GetClientCertificate(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")
	writeTestKeyPair(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	cert, err := w.GetClientCertificate(nil)
	if err != nil {
		t.Errorf("GetClientCertificate() error = %v", err)
	}
	if cert == nil {
		t.Error("GetClientCertificate() returned nil")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")
	writeTestKeyPair(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile,
		WithLogger(slog.Default()),
		WithDebounce(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	w.StartAsync()
	time.Sleep(50 * time.Millisecond)

	// Stop should not block.
	w.Stop()
}

func TestWatcher_ReloadOnRotation(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")
	writeTestKeyPair(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile,
		WithDebounce(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	w.StartAsync()
	defer w.Stop()

	// Wait for the watcher to be ready, then rotate the keypair.
	time.Sleep(100 * time.Millisecond)
	writeTestKeyPair(t, certFile, keyFile)

	// Debounce plus the post-write settle delay.
	time.Sleep(300 * time.Millisecond)

	cert, err := w.GetClientCertificate(nil)
	if err != nil {
		t.Fatalf("GetClientCertificate() error = %v", err)
	}
	if cert == nil {
		t.Error("keypair is nil after rotation")
	}
}

func TestWatcher_Options(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")
	writeTestKeyPair(t, certFile, keyFile)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w, err := NewWatcher(certFile, keyFile,
		WithLogger(logger),
		WithDebounce(200*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.logger != logger {
		t.Error("WithLogger() option not applied")
	}
	if w.debounce != 200*time.Millisecond {
		t.Errorf("WithDebounce() option not applied, got %v", w.debounce)
	}
}

func TestWatcher_TLSConfigIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "client.crt")
	keyFile := filepath.Join(tmpDir, "client.key")
	writeTestKeyPair(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	tlsConfig := NewEmptyPool().TLSConfig()
	tlsConfig.GetClientCertificate = w.GetClientCertificate

	cert, err := tlsConfig.GetClientCertificate(&tls.CertificateRequestInfo{})
	if err != nil {
		t.Errorf("GetClientCertificate() error = %v", err)
	}
	if cert == nil {
		t.Error("GetClientCertificate() returned nil")
	}
}
