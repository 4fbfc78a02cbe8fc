// Package metric provides Prometheus metrics for CredVault.
//
// It exposes metrics in Prometheus format for monitoring credential
// refresh outcomes, waiter queues, persistence health and OTP flows.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "credvault"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Refresh coordinator metrics
	RefreshTotal   *prometheus.CounterVec
	RefreshWaiters prometheus.Gauge

	// Credential store metrics
	DecryptFailures   prometheus.Counter
	PersistQueueDepth prometheus.Gauge
	PersistErrors     prometheus.Counter

	// Verification metrics
	VerifyAttempts *prometheus.CounterVec
	ResendTotal    *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,

		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "total",
			Help:      "Token refresh attempts by outcome (success, failure).",
		}, []string{"outcome"}),

		RefreshWaiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "waiters",
			Help:      "Calls currently blocked on an in-flight refresh.",
		}),

		DecryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "decrypt_failures_total",
			Help:      "Persisted credentials discarded due to decryption failure.",
		}),

		PersistQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_queue_depth",
			Help:      "Pending encrypt-and-persist jobs in the write-behind queue.",
		}),

		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_errors_total",
			Help:      "Failed durable writes (in-memory state unaffected).",
		}),

		VerifyAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "attempts_total",
			Help:      "OTP verification attempts by flow and outcome.",
		}, []string{"flow", "outcome"}),

		ResendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verify",
			Name:      "resend_total",
			Help:      "OTP resend requests by outcome (sent, rate_limited, error).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		r.RefreshTotal,
		r.RefreshWaiters,
		r.DecryptFailures,
		r.PersistQueueDepth,
		r.PersistErrors,
		r.VerifyAttempts,
		r.ResendTotal,
		collectors.NewGoCollector(),
	)

	return r
}

// Handler returns an HTTP handler serving this registry in Prometheus format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Register adds an extra collector to the underlying registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}
