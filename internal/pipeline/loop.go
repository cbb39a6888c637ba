package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindwheel/mindwheel/internal/types"
)

// Loop is the single-threaded polling loop: one snippet is fully
// processed through all states before the next poll begins; there is
// no overlap or batching across snippets. The loop sleeps between
// polls only when no new identifier was found, and checks for
// cancellation once per poll and once per snippet so shutdown never
// abandons an in-flight snippet mid-stage.
type Loop struct {
	watcher      *Watcher
	processor    *Processor
	events       chan<- types.Event
	pollInterval time.Duration
	deadline     time.Duration
	logger       *zap.SugaredLogger
}

// NewLoop wires a polling loop. deadline bounds per-snippet
// processing; zero disables the bound.
func NewLoop(watcher *Watcher, processor *Processor, events chan<- types.Event, pollInterval, deadline time.Duration, logger *zap.SugaredLogger) *Loop {
	return &Loop{
		watcher:      watcher,
		processor:    processor,
		events:       events,
		pollInterval: pollInterval,
		deadline:     deadline,
		logger:       logger,
	}
}

// Run polls until the context is cancelled.
func (l *Loop) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	l.logger.Infof("classification loop started, watching %s every %v", l.watcher.Dir(), l.pollInterval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("cancellation request received, stopping classification loop")
			return
		default:
		}

		fresh, err := l.watcher.Poll()
		if err != nil {
			// The intake directory was readable at startup; transient
			// listing errors are logged and retried on the next poll.
			l.logger.Errorf("intake poll failed: %v", err)
			fresh = nil
		}

		for _, name := range fresh {
			select {
			case <-ctx.Done():
				l.logger.Info("cancellation request received, stopping classification loop")
				return
			default:
			}
			l.handleSnippet(ctx, name)
		}

		if len(fresh) == 0 {
			select {
			case <-ctx.Done():
				l.logger.Info("cancellation request received, stopping classification loop")
				return
			case <-time.After(l.pollInterval):
			}
		}
	}
}

// handleSnippet runs one state machine pass and publishes the
// resulting event. The identifier is marked consumed whether the run
// succeeded or failed, so a snippet is attempted at most once.
func (l *Loop) handleSnippet(ctx context.Context, name string) {
	defer l.watcher.MarkConsumed(name)

	snippetCtx := ctx
	if l.deadline > 0 {
		var cancel context.CancelFunc
		snippetCtx, cancel = context.WithTimeout(ctx, l.deadline)
		defer cancel()
	}

	res := l.processor.Process(snippetCtx, l.watcher.Path(name), name)

	var event types.Event
	if res.Err != nil {
		l.logger.Errorf("snippet %s failed at state %v: %v", name, res.FailedAt, res.Err)
		event = types.NewFailedEvent(name, res.Err)
	} else {
		l.logger.Debugf("snippet %s classified as %v (filter %v) in %v", name, res.Action, res.Filter, res.Latency)
		event = types.NewEvent(name, res.Filter, res.Action, res.Latency)
	}

	select {
	case l.events <- event:
	case <-ctx.Done():
	}
}
