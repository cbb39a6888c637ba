package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mindwheel/mindwheel/internal/sinks"
	"github.com/mindwheel/mindwheel/internal/types"
)

// feedEvent runs the cache as a sink long enough to record one event.
func feedEvent(t *testing.T, cache *sinks.StatusCache, e types.Event) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	c := cache.StartSink(ctx, &wg)
	c <- e

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cache.Snapshot().Processed > 0 {
			cancel()
			wg.Wait()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("event was not recorded in time")
}

func TestStatusEndpoint(t *testing.T) {
	cache := sinks.NewStatusCache()
	c := NewController("127.0.0.1:0", cache)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	c.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var snap sinks.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Processed != 0 || snap.Latest != nil {
		t.Errorf("fresh snapshot = %+v", snap)
	}
}

func TestLatestEndpoint(t *testing.T) {
	cache := sinks.NewStatusCache()
	c := NewController("127.0.0.1:0", cache)

	req := httptest.NewRequest(http.MethodGet, "/latest", nil)
	rec := httptest.NewRecorder()
	c.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty cache /latest status = %d, want 404", rec.Code)
	}

	// Feed one event through the sink channel and wait for the cache
	// to pick it up.
	feedEvent(t, cache, types.NewEvent("buffer_01.csv", types.FilterBlink, types.ActionBlink, 0))

	rec = httptest.NewRecorder()
	c.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/latest status = %d, want 200", rec.Code)
	}
	var event types.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &event); err != nil {
		t.Fatal(err)
	}
	if event.Snippet != "buffer_01.csv" || event.FilterName != "Blink" {
		t.Errorf("latest event = %+v", event)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	c := NewController("127.0.0.1:0", sinks.NewStatusCache())

	rec := httptest.NewRecorder()
	c.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /status = %d, want 405", rec.Code)
	}
}
