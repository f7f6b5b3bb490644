package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// authMetrics is the Prometheus implementation of the broker and access
// control metrics interfaces.
type authMetrics struct {
	authAttempts *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	sessions     *prometheus.CounterVec
}

// AuthMetrics records authentication and authorization outcomes.
// A nil AuthMetrics is valid and records nothing.
type AuthMetrics interface {
	// RecordAuthAttempt records one authentication attempt against the
	// named provider with outcome "success", "failure" or "unknown_user".
	RecordAuthAttempt(provider, outcome string)

	// RecordDecision records one access control decision for the matched
	// rule pattern.
	RecordDecision(decision, rule string)

	// RecordSession records a session lifecycle event: "issued",
	// "expired", "invalid" or "cleared".
	RecordSession(event string)
}

// NewAuthMetrics creates a Prometheus-backed AuthMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
// Callers pass the nil straight through; every recording site checks it.
func NewAuthMetrics() AuthMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &authMetrics{
		authAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatewarden_auth_attempts_total",
				Help: "Total number of authentication attempts by provider and outcome",
			},
			[]string{"provider", "outcome"}, // provider: local, directory, external, broker
		),
		decisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatewarden_access_decisions_total",
				Help: "Total number of access control decisions by decision and matched rule",
			},
			[]string{"decision", "rule"},
		),
		sessions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatewarden_sessions_total",
				Help: "Total number of session lifecycle events",
			},
			[]string{"event"}, // issued, expired, invalid, cleared
		),
	}
}

func (m *authMetrics) RecordAuthAttempt(provider, outcome string) {
	m.authAttempts.WithLabelValues(provider, outcome).Inc()
}

func (m *authMetrics) RecordDecision(decision, rule string) {
	m.decisions.WithLabelValues(decision, rule).Inc()
}

func (m *authMetrics) RecordSession(event string) {
	m.sessions.WithLabelValues(event).Inc()
}
