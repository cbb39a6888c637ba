package sinks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mindwheel/mindwheel/internal/log"
	"github.com/mindwheel/mindwheel/internal/types"
)

// Telemetry writes the line-oriented reporting protocol consumed by
// the external presentation layer. The marker substrings
// "Chosen Filter: " and "Predicted Action: " are a contract with that
// consumer and must not change without renegotiation; that is why this
// sink writes plain lines to a dedicated stream instead of going
// through the structured logger.
type Telemetry struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTelemetry creates a telemetry sink writing to w.
func NewTelemetry(w io.Writer) *Telemetry {
	return &Telemetry{w: w}
}

// StartSink implements Sink.
func (t *Telemetry) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Event {
	c := make(chan types.Event, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case event := <-c:
				if event.Failed {
					continue
				}
				if err := t.Emit(event); err != nil {
					log.Errorf("telemetry write failed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

// Emit writes the three report lines for one classified snippet.
func (t *Telemetry) Emit(event types.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "Chosen Filter: %s\nPredicted Action: %s\nEnd-to-end processing latency: %.2f ms\n\n",
		event.Filter, event.Action, event.LatencyMS)
	return err
}
