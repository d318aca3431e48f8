package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bakeryops/bakery-maint/internal/logging"
)

func newManager() *ShutdownManager {
	return NewShutdownManager(ShutdownConfig{
		ShutdownTimeout: time.Second,
		DrainTimeout:    200 * time.Millisecond,
		Logger:          logging.Discard(),
	})
}

func TestShutdown_ClosesInReverseOrder(t *testing.T) {
	sm := newManager()
	var order []string
	sm.RegisterCloser("db", CloserFunc(func() error { order = append(order, "db"); return nil }))
	sm.RegisterCloser("http", CloserFunc(func() error { order = append(order, "http"); return nil }))

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if len(order) != 2 || order[0] != "http" || order[1] != "db" {
		t.Errorf("close order = %v", order)
	}

	// Second call is a no-op.
	if err := sm.Shutdown(context.Background(), "again"); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	if len(order) != 2 {
		t.Errorf("closers ran twice: %v", order)
	}
}

func TestShutdown_ReportsCloseErrors(t *testing.T) {
	sm := newManager()
	boom := errors.New("boom")
	sm.RegisterCloser("broken", CloserFunc(func() error { return boom }))

	if err := sm.Shutdown(context.Background(), "test"); !errors.Is(err, boom) {
		t.Errorf("Shutdown error = %v", err)
	}
}

func TestShutdown_DrainTimeout(t *testing.T) {
	sm := newManager()
	if !sm.TrackRequest() {
		t.Fatal("request rejected before shutdown")
	}

	err := sm.Shutdown(context.Background(), "test")
	if err == nil {
		t.Fatal("expected drain timeout")
	}
	if sm.TrackRequest() {
		t.Error("request accepted during shutdown")
	}
	sm.UntrackRequest()
	if sm.InFlightCount() != 0 {
		t.Errorf("in flight = %d", sm.InFlightCount())
	}
}

func TestShutdownMiddleware(t *testing.T) {
	sm := newManager()
	h := ShutdownMiddleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.InFlightCount() != 1 {
			t.Errorf("in flight inside handler = %d", sm.InFlightCount())
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status during shutdown = %d", rec.Code)
	}
	if !sm.IsShuttingDown() {
		t.Error("IsShuttingDown should be true")
	}
}
