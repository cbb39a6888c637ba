package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mindwheel/mindwheel/internal/dsp"
	"github.com/mindwheel/mindwheel/internal/features"
	"github.com/mindwheel/mindwheel/internal/model"
	"github.com/mindwheel/mindwheel/internal/snippet"
	"github.com/mindwheel/mindwheel/internal/types"
)

// ErrAcquisitionStall reports that a snippet exceeded its processing
// deadline. The snippet is reported as failed and the loop continues.
var ErrAcquisitionStall = errors.New("snippet processing deadline exceeded")

// State enumerates the per-snippet state machine. Every snippet run
// ends in StateReported: either with a label or with a failure
// annotation.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateFilterSelected
	StateConditioned
	StateFeaturesExtracted
	StateClassified
	StateReported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoaded:
		return "Loaded"
	case StateFilterSelected:
		return "FilterSelected"
	case StateConditioned:
		return "Conditioned"
	case StateFeaturesExtracted:
		return "FeaturesExtracted"
	case StateClassified:
		return "Classified"
	case StateReported:
		return "Reported"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of one state machine run.
type Result struct {
	Snippet string
	Filter  types.FilterKind
	Action  types.ActionLabel
	Latency time.Duration
	// FailedAt is the state at which processing failed; StateReported
	// when the run succeeded.
	FailedAt State
	Err      error
}

// Processor runs the two-stage classification for a single snippet. It
// holds no per-snippet state and owns the only mutable member, the
// window-offset RNG, which is only ever used from the loop goroutine.
type Processor struct {
	samplingRate float64
	channels     int
	selector     *model.FilterSelector
	classifier   *model.ActionClassifier
	rng          *rand.Rand

	// conditioners caches one designed filter per FilterKind; designs
	// are pure functions of the (kind, sampling rate) pair.
	conditioners map[types.FilterKind]*dsp.BandPass
}

// NewProcessor builds a processor and pre-designs the four
// conditioning filters for the configured sampling rate.
func NewProcessor(samplingRate float64, channels int, selector *model.FilterSelector, classifier *model.ActionClassifier, rng *rand.Rand) (*Processor, error) {
	if samplingRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %v", samplingRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if want := features.ActionVectorLen(channels); classifier.Features() != want {
		return nil, fmt.Errorf("action classifier expects %d features but %d channels produce %d", classifier.Features(), channels, want)
	}
	if selector.Features() != features.FilterFeatureCount {
		return nil, fmt.Errorf("filter selector expects %d features, want %d", selector.Features(), features.FilterFeatureCount)
	}

	conditioners := make(map[types.FilterKind]*dsp.BandPass, 4)
	for _, kind := range []types.FilterKind{types.FilterBiting, types.FilterBlink, types.FilterEyebrow, types.FilterJawClench} {
		low, high := kind.Passband()
		bp, err := dsp.NewBandPass(low, high, samplingRate)
		if err != nil {
			return nil, fmt.Errorf("designing %v filter: %w", kind, err)
		}
		conditioners[kind] = bp
	}

	return &Processor{
		samplingRate: samplingRate,
		channels:     channels,
		selector:     selector,
		classifier:   classifier,
		rng:          rng,
		conditioners: conditioners,
	}, nil
}

// Process runs the full state machine for one snippet file. Any
// failure is contained in the returned Result; Process never panics on
// malformed input. The context carries the per-snippet deadline: a
// deadline expiry between stages surfaces as ErrAcquisitionStall.
func (p *Processor) Process(ctx context.Context, path, name string) Result {
	res := Result{Snippet: name, FailedAt: StateReported}

	fail := func(at State, err error) Result {
		res.FailedAt = at
		res.Err = err
		return res
	}
	stalled := func(at State) (Result, bool) {
		if ctx.Err() != nil {
			return fail(at, fmt.Errorf("%w: %v", ErrAcquisitionStall, ctx.Err())), true
		}
		return res, false
	}

	snip, err := snippet.Load(path, p.channels)
	if err != nil {
		return fail(StateIdle, err)
	}
	window := snip.SelectWindow(p.samplingRate, p.rng)
	if len(window) == 0 || len(window[0]) == 0 {
		return fail(StateLoaded, fmt.Errorf("%w: %s has no data rows", snippet.ErrMalformedSnippet, name))
	}
	if r, bad := stalled(StateLoaded); bad {
		return r
	}

	filterVec := features.FilterVector(window, p.samplingRate)
	kind, err := p.selector.Select(filterVec)
	if err != nil {
		return fail(StateLoaded, fmt.Errorf("filter selection for %s: %w", name, err))
	}
	res.Filter = kind
	if r, bad := stalled(StateFilterSelected); bad {
		return r
	}

	// Latency is measured from immediately before conditioning to
	// immediately after the label is produced.
	started := time.Now()

	conditioned := make([][]float64, len(window))
	bp := p.conditioners[kind]
	for c, ch := range window {
		conditioned[c], err = bp.Apply(ch)
		if err != nil {
			return fail(StateFilterSelected, fmt.Errorf("conditioning %s channel %d: %w", name, c, err))
		}
	}
	if r, bad := stalled(StateConditioned); bad {
		return r
	}

	actionVec := features.ActionVector(conditioned, p.samplingRate)
	if r, bad := stalled(StateFeaturesExtracted); bad {
		return r
	}

	action, err := p.classifier.Classify(actionVec)
	if err != nil {
		return fail(StateFeaturesExtracted, fmt.Errorf("classifying %s: %w", name, err))
	}

	res.Action = action
	res.Latency = time.Since(started)
	return res
}
