package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetmaster/internal/config"
	"budgetmaster/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BUDGET_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUDGET_TEST_VALUE", "")
	os.Unsetenv("BUDGET_TEST_VALUE")

	LoadEnvFile(path)
	if got := os.Getenv("BUDGET_TEST_VALUE"); got != "from-file" {
		t.Fatalf("got %q", got)
	}

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadEnvFileKeepsExistingEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BUDGET_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUDGET_TEST_VALUE", "from-env")

	LoadEnvFile(path)
	if got := os.Getenv("BUDGET_TEST_VALUE"); got != "from-env" {
		t.Fatalf("got %q", got)
	}
}

func TestServeHTTPStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := &http.Server{Addr: addr, Handler: http.NewServeMux()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ServeHTTP(ctx, log.Discard(), srv, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeHTTPReportsListenError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NewServeMux()}
	if err := ServeHTTP(context.Background(), log.Discard(), srv, time.Second); err == nil {
		t.Fatal("expected listen error")
	}
}

type fakeCloser struct {
	closed bool
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})

	ok := &fakeCloser{}
	Close(logger, "database", ok)
	if !ok.closed || !bytes.Contains(buf.Bytes(), []byte("Closed database")) {
		t.Fatalf("closed=%v log=%q", ok.closed, buf.String())
	}

	buf.Reset()
	failing := &fakeCloser{err: errors.New("boom")}
	Close(logger, "publisher", failing)
	if !failing.closed || !bytes.Contains(buf.Bytes(), []byte("Failed to close publisher")) {
		t.Fatalf("closed=%v log=%q", failing.closed, buf.String())
	}
}

func TestOpenStoreReturnsError(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notADir, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Database: config.Database{Dialect: config.DialectSQLite, DSN: filepath.Join(notADir, "budget.db")}}

	store, err := OpenStore(context.Background(), log.Discard(), cfg)
	if err == nil {
		store.Close()
		t.Fatal("expected error")
	}
}
