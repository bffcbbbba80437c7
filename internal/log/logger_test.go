package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf, Component: ComponentBudget})

	logger.Info("limit reached", FieldUserID, int64(7))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentBudget {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldUserID] != float64(7) {
		t.Errorf("user_id = %v", rec[FieldUserID])
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf}).WithComponent(ComponentMail)

	logger.Warn("send failed")

	if n := strings.Count(buf.String(), "component="); n != 1 {
		t.Fatalf("expected one component attribute, got %d: %s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "component=mail") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "INFO"},
		{404, "WARN"},
		{500, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := New(Config{Format: "json", Output: &buf})
		ctx := context.WithValue(context.Background(), LoggerContextKey, logger)
		req := httptest.NewRequest("GET", "/budget-status/1", nil)

		NewStructuredLogger(logger).LogHTTPEnd(ctx, req, tt.status, 3, "127.0.0.1")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if rec["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, rec["level"], tt.level)
		}
		if rec[FieldComponent] != ComponentHTTP {
			t.Errorf("component = %v", rec[FieldComponent])
		}
	}
}

func TestLogFieldsWithError(t *testing.T) {
	f := NewFields().WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error must not be recorded")
	}
	f = f.WithError(errors.New("boom"))
	if f[FieldError] != "boom" {
		t.Fatalf("error field = %v", f[FieldError])
	}
}
