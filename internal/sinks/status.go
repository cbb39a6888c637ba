package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/mindwheel/mindwheel/internal/types"
)

// StatusCache retains the most recent classification event and running
// counters for the HTTP status controller. It is the only sink that is
// read from outside its own goroutine, so access is mutex-guarded.
type StatusCache struct {
	mu        sync.RWMutex
	latest    *types.Event
	processed int
	failed    int
	started   time.Time
}

// NewStatusCache creates an empty status cache.
func NewStatusCache() *StatusCache {
	return &StatusCache{started: time.Now()}
}

// StartSink implements Sink.
func (s *StatusCache) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Event {
	c := make(chan types.Event, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case event := <-c:
				s.record(event)
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

func (s *StatusCache) record(event types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	if event.Failed {
		s.failed++
	}
	s.latest = &event
}

// Snapshot describes the pipeline's externally visible state.
type Snapshot struct {
	Latest        *types.Event `json:"latest,omitempty"`
	Processed     int          `json:"processed"`
	Failed        int          `json:"failed"`
	UptimeSeconds float64      `json:"uptime_seconds"`
}

// Snapshot returns a copy of the current state.
func (s *StatusCache) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Processed:     s.processed,
		Failed:        s.failed,
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	if s.latest != nil {
		event := *s.latest
		snap.Latest = &event
	}
	return snap
}
