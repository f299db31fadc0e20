package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserveRequest(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("version", nil, 20*time.Millisecond)
	m.ObserveRequest("version", errors.New("boom"), time.Millisecond)
	m.ObserveRequest("package", nil, time.Millisecond)

	if got := testutil.ToFloat64(m.requestCount.WithLabelValues("version", "ok")); got != 1 {
		t.Errorf("version ok = %v", got)
	}
	if got := testutil.ToFloat64(m.requestCount.WithLabelValues("version", "error")); got != 1 {
		t.Errorf("version error = %v", got)
	}
	if n := testutil.CollectAndCount(m.requestDuration); n != 2 {
		t.Errorf("duration series = %d", n)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("package", nil, time.Second)
	m.VersionOutcome("bootstrap", OutcomeResolved, 3)
	m.MarkRun()
	if err := m.Push(context.Background(), "http://127.0.0.1:1"); err != nil {
		t.Errorf("nil metrics should not push: %v", err)
	}
}

func TestMetricsPush(t *testing.T) {
	var path, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewMetrics()
	m.VersionOutcome("bootstrap", OutcomeResolved, 2)
	m.MarkRun()
	if err := m.Push(context.Background(), server.URL); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if path != "/metrics/job/cdnsync" {
		t.Errorf("push path = %q", path)
	}
	if !strings.Contains(body, "cdnsync_versions_total") {
		t.Error("pushed body does not contain the version counter")
	}
	if err := m.Push(context.Background(), ""); err != nil {
		t.Errorf("empty address should be a no-op: %v", err)
	}
}
