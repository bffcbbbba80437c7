// Package trace logs one line per HTTP request and keeps request counters.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"budgetmaster/internal/log"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger
	now       func() time.Time

	total    atomic.Int64
	failures atomic.Int64
	totalMs  atomic.Int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests  int64
	ServerErrors   int64
	AverageLatency time.Duration
}

func NewMiddleware(logger *log.StructuredLogger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		now:       time.Now,
	}
}

// Handler must run after chi's RequestID and log.RequestIDMiddleware so the
// completion line carries the request id.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := m.now().Sub(start)

		m.total.Add(1)
		m.totalMs.Add(elapsed.Milliseconds())
		if status >= 500 {
			m.failures.Add(1)
		}

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		m.logger.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), clientIP)
	})
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := m.total.Load()
	metrics := Metrics{
		TotalRequests: total,
		ServerErrors:  m.failures.Load(),
	}
	if total > 0 {
		metrics.AverageLatency = time.Duration(m.totalMs.Load()/total) * time.Millisecond
	}
	return metrics
}

// RequestID returns the id chi assigned to the request, if any.
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
