// Package metric provides Prometheus metrics for CredVault.
package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RefreshTotal == nil {
		t.Error("RefreshTotal is nil")
	}
	if r.RefreshWaiters == nil {
		t.Error("RefreshWaiters is nil")
	}
	if r.DecryptFailures == nil {
		t.Error("DecryptFailures is nil")
	}
	if r.PersistQueueDepth == nil {
		t.Error("PersistQueueDepth is nil")
	}
	if r.VerifyAttempts == nil {
		t.Error("VerifyAttempts is nil")
	}
}

func TestGlobal(t *testing.T) {
	r1 := Global()
	r2 := Global()
	if r1 != r2 {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RefreshTotal.WithLabelValues("success").Inc()
	r.RefreshWaiters.Set(3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	if !strings.Contains(out, `credvault_refresh_total{outcome="success"} 1`) {
		t.Errorf("refresh counter missing from output:\n%s", out)
	}
	if !strings.Contains(out, "credvault_refresh_waiters 3") {
		t.Errorf("waiter gauge missing from output:\n%s", out)
	}
}

func TestBuildInfoCollector(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewBuildInfoCollector()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "credvault_build_info") {
		t.Error("build info metric missing from output")
	}
}

func TestVerifyAttempts_Labels(t *testing.T) {
	r := NewRegistry()
	r.VerifyAttempts.WithLabelValues("login", "success").Inc()
	r.VerifyAttempts.WithLabelValues("registration", "wrong_code").Inc()
	r.VerifyAttempts.WithLabelValues("registration", "wrong_code").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	if !strings.Contains(out, `credvault_verify_attempts_total{flow="login",outcome="success"} 1`) {
		t.Errorf("login attempt counter missing:\n%s", out)
	}
	if !strings.Contains(out, `credvault_verify_attempts_total{flow="registration",outcome="wrong_code"} 2`) {
		t.Errorf("registration attempt counter missing:\n%s", out)
	}
}
