package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"petnotice/internal/adapters/http/perf"
)

// TestTiming_RecordsToCollector tests that request timings reach the collector.
func TestTiming_RecordsToCollector(t *testing.T) {
	collector := perf.NewCollector(16)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/notices", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status passthrough, got %d", rec.Code)
	}
	if collector.TotalRecorded() != 1 {
		t.Errorf("expected 1 entry, got %d", collector.TotalRecorded())
	}

	snap := collector.ComputeSnapshot(time.Now().Add(-time.Minute), 5)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "GET /notices" {
		t.Errorf("unexpected paths: %+v", snap.SlowestPaths)
	}
}

// TestTiming_SkipsUploads tests that static upload requests are not recorded.
func TestTiming_SkipsUploads(t *testing.T) {
	collector := perf.NewCollector(16)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/uploads/image-1-abc.jpg", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if collector.TotalRecorded() != 0 {
		t.Errorf("expected 0 entries for /uploads/, got %d", collector.TotalRecorded())
	}
}

// TestRateLimiter_Allow tests token exhaustion and refusal.
func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	ip := "192.0.2.1:1234"
	if !rl.Allow(ip) || !rl.Allow(ip) {
		t.Fatal("expected first two requests allowed")
	}
	if rl.Allow(ip) {
		t.Error("expected third request refused")
	}
}

// TestCORS_Preflight tests that API preflights get a 204 with open headers.
func TestCORS_Preflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the inner handler")
	}))

	req := httptest.NewRequest("OPTIONS", "/notices", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected open CORS origin on API path")
	}
}

// TestCORS_NonAPIPathUntouched tests that the board page gets no CORS headers.
func TestCORS_NonAPIPathUntouched(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no CORS headers on non-API path")
	}
}
