package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch("GET", "ok", 10*time.Millisecond)
	m.ObserveFetch("GET", "ok", 20*time.Millisecond)
	m.ObserveFetch("GET", "error", time.Millisecond)

	if got := m.FetchCount("GET", "ok"); got != 2 {
		t.Fatalf("expected 2 ok fetches, got %v", got)
	}
	if got := m.FetchCount("GET", "error"); got != 1 {
		t.Fatalf("expected 1 failed fetch, got %v", got)
	}
	if got := m.FetchLatencySamples("GET"); got != 3 {
		t.Fatalf("expected 3 latency samples, got %d", got)
	}
}

func TestCountFetchSkipsLatency(t *testing.T) {
	m := New()
	m.CountFetch("GET", "throttled")

	if got := m.FetchCount("GET", "throttled"); got != 1 {
		t.Fatalf("expected 1 throttled fetch, got %v", got)
	}
	if got := m.FetchLatencySamples("GET"); got != 0 {
		t.Fatalf("expected no latency samples, got %d", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("GET", "ok", time.Millisecond)
	m.ObserveProbe("ok")
	if m.ProbeCount("ok") != 0 {
		t.Fatalf("expected zero from nil metrics")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from nil metrics handler, got %d", rec.Code)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveProbe("unreachable")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `nextimage_env_bucket_probes_total{outcome="unreachable"} 1`) {
		t.Fatalf("expected probe counter in exposition, got:\n%s", rec.Body.String())
	}
}
