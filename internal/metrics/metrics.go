// Package metrics defines the client's Prometheus collectors and writes
// them to a node-exporter textfile after each command.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for gateway calls.
const (
	OutcomeSuccess      = "success"
	OutcomeAuthMissing  = "auth_missing"
	OutcomeRejected     = "rejected"
	OutcomeUnreachable  = "unreachable"
	OutcomeSetupFailed  = "setup_failed"
	OutcomeInvalidInput = "invalid_input"
)

// Metrics groups the client's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	AnalysisItems   *prometheus.CounterVec
	Subscriptions   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishguard_gateway_requests_total",
				Help: "Outbound scanner API calls, labeled by path and classified outcome.",
			},
			[]string{"path", "outcome"},
		),
		GatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phishguard_gateway_request_duration_seconds",
				Help:    "Duration of outbound scanner API calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		AnalysisItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishguard_analysis_items_total",
				Help: "Analysis result items produced, labeled by item type and status.",
			},
			[]string{"type", "status"},
		),
		Subscriptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phishguard_subscriptions_total",
				Help: "Alert subscription attempts, labeled by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		),
	}

	m.Registry.MustRegister(m.GatewayRequests, m.GatewayDuration, m.AnalysisItems, m.Subscriptions)

	return m
}

// WriteTextfile writes the current values in the text exposition format,
// for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}

	return nil
}
