package telemetry

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMux_Healthz(t *testing.T) {
	healthy := true
	mux := NewMux(func() bool { return healthy })

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	healthy = false
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestNewMux_Metrics(t *testing.T) {
	MessagesFetched.Inc()

	rec := httptest.NewRecorder()
	NewMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "s3relay_messages_fetched_total") {
		t.Error("metrics output should contain s3relay_messages_fetched_total")
	}
}

func TestNewLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, false, "text")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record should be filtered at INFO level: %s", buf.String())
	}

	logger = WithWorker(NewLogger(&buf, true, "json"), "worker-1")
	logger.Debug("visible")
	if !strings.Contains(buf.String(), `"worker":"worker-1"`) {
		t.Errorf("expected worker attribute, got %s", buf.String())
	}
}
