// Package sinks defines the downstream consumers of classification
// events and the distributor that fans events out to them. Each sink
// runs its own goroutine behind a channel, so a slow consumer never
// stalls the classification loop beyond its channel buffer.
package sinks

import (
	"context"
	"sync"

	"github.com/mindwheel/mindwheel/internal/types"
)

// Sink is a standardized downstream consumer of classification events.
type Sink interface {
	// StartSink launches the sink's goroutine and returns the channel
	// events are delivered on.
	StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Event
}

// Distributor fans classification events out to all configured sinks.
type Distributor struct {
	Sinks []chan<- types.Event
	C     chan types.Event
}

// NewDistributor starts all sinks and the fan-out goroutine, returning
// the distributor whose C channel the pipeline publishes to.
func NewDistributor(ctx context.Context, wg *sync.WaitGroup, sinks []Sink) *Distributor {
	d := &Distributor{
		C: make(chan types.Event, 20),
	}
	for _, s := range sinks {
		d.Sinks = append(d.Sinks, s.StartSink(ctx, wg))
	}

	wg.Add(1)
	go d.run(ctx, wg)
	return d
}

func (d *Distributor) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case event := <-d.C:
			for _, c := range d.Sinks {
				select {
				case c <- event:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
