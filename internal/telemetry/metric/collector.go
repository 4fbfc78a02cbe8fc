// Package metric provides Prometheus metrics for CredVault.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veldra/credvault-go/internal/infra/buildinfo"
)

// BuildInfoCollector exposes build metadata as a constant gauge.
//
// The metric value is always 1; labels carry version and commit.
type BuildInfoCollector struct {
	desc *prometheus.Desc
}

// NewBuildInfoCollector creates a collector for build metadata.
func NewBuildInfoCollector() *BuildInfoCollector {
	info := buildinfo.Get()
	return &BuildInfoCollector{
		desc: prometheus.NewDesc(
			namespace+"_build_info",
			"Build metadata of the running binary.",
			nil,
			prometheus.Labels{
				"version":    info.Version,
				"commit":     info.Commit,
				"go_version": info.GoVersion,
			},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *BuildInfoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *BuildInfoCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, 1)
}
