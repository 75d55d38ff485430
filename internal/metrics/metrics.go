// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	wizardTransitions       *prometheus.CounterVec
	reportsSubmitted        prometheus.Counter
	verificationTransitions *prometheus.CounterVec
	challengesDispatched    *prometheus.CounterVec
	activeSessions          *prometheus.GaugeVec
	reportCacheLookups      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Time taken for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		wizardTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_wizard_transitions_total",
				Help: "Report wizard state transitions",
			},
			[]string{"from", "to"},
		),
		reportsSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reports_submitted_total",
				Help: "Reports stored successfully",
			},
		),
		verificationTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_transitions_total",
				Help: "Verification flow state transitions",
			},
			[]string{"from", "to"},
		),
		challengesDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_challenges_dispatched_total",
				Help: "Challenge deliveries by outcome",
			},
			[]string{"channel", "status"}, // status: sent, failed, logged
		),
		activeSessions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "active_sessions",
				Help: "In-memory workflow sessions",
			},
			[]string{"kind"}, // kind: wizard, verification
		),
		reportCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_cache_lookups_total",
				Help: "Report list cache lookups",
			},
			[]string{"result"}, // result: hit, miss, error
		),
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.wizardTransitions,
		m.reportsSubmitted,
		m.verificationTransitions,
		m.challengesDispatched,
		m.activeSessions,
		m.reportCacheLookups,
	}
}

// Nil receivers are no-ops so components can run without metrics in tests.

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) WizardTransition(from, to string) {
	if m == nil {
		return
	}
	m.wizardTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ReportSubmitted() {
	if m == nil {
		return
	}
	m.reportsSubmitted.Inc()
}

func (m *Metrics) VerificationTransition(from, to string) {
	if m == nil {
		return
	}
	m.verificationTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ChallengeDispatched(channel, status string) {
	if m == nil {
		return
	}
	m.challengesDispatched.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) SetActiveSessions(kind string, n int) {
	if m == nil {
		return
	}
	m.activeSessions.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.reportCacheLookups.WithLabelValues(result).Inc()
}
