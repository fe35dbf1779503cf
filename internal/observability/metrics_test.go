package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAPICountsRequests(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("get", "/api/v1/course", "200", 10*time.Millisecond)
	m.ObserveAPI("GET", "/api/v1/course", "200", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.apiRequests.WithLabelValues("GET", "/api/v1/course", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
}

func TestObserveLLMRequestAddsTokens(t *testing.T) {
	m := NewMetrics()
	m.ObserveLLMRequest("gpt", "/v1/responses", "200", time.Second, 10, 5)
	if got := testutil.ToFloat64(m.llmTokens.WithLabelValues("gpt", "input")); got != 10 {
		t.Fatalf("expected 10 input tokens, got %v", got)
	}
	if got := testutil.ToFloat64(m.llmTokens.WithLabelValues("gpt", "output")); got != 5 {
		t.Fatalf("expected 5 output tokens, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ApiInflightInc()
	m.IncSecurityEvent("login_failed")
	m.IncExtraction("pdf", "ok")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.IncSecurityEvent("login_failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `knowtopia_security_events_total{event="login_failed"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", rec.Body.String())
	}
}
