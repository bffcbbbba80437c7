package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"budgetmaster/internal/log"
)

func TestMiddleware_LogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "text", Component: log.ComponentApp, Output: &buf})

	tm := NewMiddleware(log.NewStructuredLogger(logger), func(*http.Request) string { return "9.9.9.9" })

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	h := middleware.RequestID(log.Middleware(logger)(log.RequestIDMiddleware(RequestID)(tm.Handler(mux))))

	for _, path := range []string{"/ok", "/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := buf.String()
	if !strings.Contains(out, "status_code=200") || !strings.Contains(out, "status_code=500") {
		t.Fatalf("missing status codes in %q", out)
	}
	if !strings.Contains(out, "client_ip=9.9.9.9") {
		t.Fatalf("missing client ip in %q", out)
	}
	if !strings.Contains(out, "request_id=") {
		t.Fatalf("missing request id in %q", out)
	}
	if !strings.Contains(out, "level=ERROR") {
		t.Fatalf("500 should log at error: %q", out)
	}

	m := tm.GetMetrics()
	if m.TotalRequests != 2 || m.ServerErrors != 1 {
		t.Fatalf("metrics = %+v", m)
	}
}
