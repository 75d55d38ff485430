package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.ObserveHTTP("POST", "/api/v1/wizards/{id}/submit", 201, 15*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/wizards/{id}/submit", 201, 5*time.Millisecond)
	m.WizardTransition("submitting", "failed")
	m.ReportSubmitted()
	m.ChallengeDispatched("email", "sent")
	m.SetActiveSessions("wizard", 3)
	m.CacheLookup("hit")

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/wizards/{id}/submit", "201")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.wizardTransitions.WithLabelValues("submitting", "failed")); got != 1 {
		t.Fatalf("expected 1 failed transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.reportsSubmitted); got != 1 {
		t.Fatalf("expected 1 report, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions.WithLabelValues("wizard")); got != 3 {
		t.Fatalf("expected gauge 3, got %v", got)
	}
}

func TestMetrics_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.WizardTransition("a", "b")
	m.ReportSubmitted()
	m.VerificationTransition("a", "b")
	m.ChallengeDispatched("email", "sent")
	m.SetActiveSessions("wizard", 1)
	m.CacheLookup("miss")
}
