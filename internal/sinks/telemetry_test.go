package sinks

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mindwheel/mindwheel/internal/types"
)

func TestTelemetryEmitFormat(t *testing.T) {
	var buf bytes.Buffer
	tel := NewTelemetry(&buf)

	err := tel.Emit(types.Event{
		Filter:    types.FilterBlink,
		Action:    types.ActionJawClench,
		LatencyMS: 12.345,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "Chosen Filter: Blink\nPredicted Action: Jaw Clench\nEnd-to-end processing latency: 12.35 ms\n\n"
	if got := buf.String(); got != want {
		t.Errorf("Emit wrote %q, want %q", got, want)
	}
}

func TestTelemetryMarkerLines(t *testing.T) {
	// The marker substrings are a contract with the external
	// presentation layer.
	var buf bytes.Buffer
	tel := NewTelemetry(&buf)
	if err := tel.Emit(types.Event{Filter: types.FilterBiting, Action: types.ActionBiting}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, marker := range []string{"Chosen Filter: ", "Predicted Action: "} {
		if !strings.Contains(out, marker) {
			t.Errorf("output %q missing marker %q", out, marker)
		}
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("report block must end with a blank line, got %q", out)
	}
}

func TestTelemetrySinkSkipsFailedEvents(t *testing.T) {
	var buf syncBuffer
	tel := NewTelemetry(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	c := tel.StartSink(ctx, &wg)

	c <- types.Event{Failed: true, FailReason: "malformed"}
	c <- types.Event{Filter: types.FilterEyebrow, Action: types.ActionEyebrow, LatencyMS: 1}

	waitFor(t, func() bool { return strings.Count(buf.String(), "Chosen Filter") == 1 })
	if strings.Contains(buf.String(), "malformed") {
		t.Errorf("failed event leaked into telemetry: %q", buf.String())
	}

	cancel()
	wg.Wait()
}

func TestStatusCacheCounters(t *testing.T) {
	cache := NewStatusCache()

	snap := cache.Snapshot()
	if snap.Processed != 0 || snap.Failed != 0 || snap.Latest != nil {
		t.Fatalf("fresh cache snapshot = %+v", snap)
	}

	cache.record(types.Event{Snippet: "buffer_01.csv", FilterName: "Blink"})
	cache.record(types.Event{Snippet: "buffer_02.csv", Failed: true})

	snap = cache.Snapshot()
	if snap.Processed != 2 || snap.Failed != 1 {
		t.Errorf("counters = %d/%d, want 2/1", snap.Processed, snap.Failed)
	}
	if snap.Latest == nil || snap.Latest.Snippet != "buffer_02.csv" {
		t.Errorf("Latest = %+v, want buffer_02.csv", snap.Latest)
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %v", snap.UptimeSeconds)
	}
}

func TestDistributorFansOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	a := newCaptureSink()
	b := newCaptureSink()
	d := NewDistributor(ctx, &wg, []Sink{a, b})

	d.C <- types.Event{Snippet: "buffer_01.csv"}
	d.C <- types.Event{Snippet: "buffer_02.csv"}

	waitFor(t, func() bool { return a.count() == 2 && b.count() == 2 })
	if got := a.names(); got[0] != "buffer_01.csv" || got[1] != "buffer_02.csv" {
		t.Errorf("sink received %v, want delivery in publish order", got)
	}

	cancel()
	wg.Wait()
}

// captureSink records every event it receives.
type captureSink struct {
	mu     sync.Mutex
	events []types.Event
}

func newCaptureSink() *captureSink { return &captureSink{} }

func (s *captureSink) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Event {
	c := make(chan types.Event, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case event := <-c:
				s.mu.Lock()
				s.events = append(s.events, event)
				s.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *captureSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Snippet
	}
	return out
}

// syncBuffer is a bytes.Buffer safe for cross-goroutine reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}
