// Package types defines the shared domain types used across the
// classification pipeline: the closed filter and action enumerations,
// their fixed passband and actuator-command tables, and the Event
// record published to downstream sinks.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FilterKind identifies one of the four fixed band-limiting filter
// configurations used to condition a raw snippet before action
// classification.
type FilterKind int

const (
	FilterBiting FilterKind = iota
	FilterBlink
	FilterEyebrow
	FilterJawClench
)

// String returns the canonical filter name. These names appear in the
// telemetry line protocol and in persisted label codecs; they must not
// change.
func (f FilterKind) String() string {
	switch f {
	case FilterBiting:
		return "Biting"
	case FilterBlink:
		return "Blink"
	case FilterEyebrow:
		return "Eyebrow"
	case FilterJawClench:
		return "Jaw Clench"
	}
	return fmt.Sprintf("FilterKind(%d)", int(f))
}

// Passband returns the filter's fixed passband in Hz.
func (f FilterKind) Passband() (lowHz, highHz float64) {
	switch f {
	case FilterBiting:
		return 20, 50
	case FilterBlink:
		return 0.1, 4
	case FilterEyebrow:
		return 25, 40
	case FilterJawClench:
		return 20, 50
	}
	// Unreachable for the closed set above; fall back to the widest band.
	return 0.1, 50
}

// FilterKindFromName resolves a persisted label-codec class name to its
// FilterKind.
func FilterKindFromName(name string) (FilterKind, error) {
	switch name {
	case "Biting":
		return FilterBiting, nil
	case "Blink":
		return FilterBlink, nil
	case "Eyebrow":
		return FilterEyebrow, nil
	case "Jaw Clench":
		return FilterJawClench, nil
	}
	return 0, fmt.Errorf("unknown filter class name %q", name)
}

// ActionLabel identifies one of the four recognized facial/muscle
// actions. It is semantically aligned with FilterKind but produced by
// an independently trained classifier.
type ActionLabel int

const (
	ActionBiting ActionLabel = iota
	ActionBlink
	ActionEyebrow
	ActionJawClench
)

// String returns the canonical action name as it appears in the
// telemetry line protocol.
func (a ActionLabel) String() string {
	switch a {
	case ActionBiting:
		return "Biting"
	case ActionBlink:
		return "Blink"
	case ActionEyebrow:
		return "Eyebrow"
	case ActionJawClench:
		return "Jaw Clench"
	}
	return fmt.Sprintf("ActionLabel(%d)", int(a))
}

// Command returns the short command word the actuator expects for this
// action.
func (a ActionLabel) Command() string {
	switch a {
	case ActionBiting:
		return "bite"
	case ActionBlink:
		return "blink"
	case ActionEyebrow:
		return "brow"
	case ActionJawClench:
		return "jaw"
	}
	return ""
}

// ActionLabelFromIndex maps the action classifier's numeric class index
// to its label. The table is fixed by the training pipeline:
// 0=Biting, 1=Blink, 2=Eyebrow, 3=Jaw Clench.
func ActionLabelFromIndex(idx int) (ActionLabel, error) {
	if idx < 0 || idx > int(ActionJawClench) {
		return 0, fmt.Errorf("action class index %d out of range", idx)
	}
	return ActionLabel(idx), nil
}

// AllActionLabels lists every member of the closed action set, in class
// index order.
func AllActionLabels() []ActionLabel {
	return []ActionLabel{ActionBiting, ActionBlink, ActionEyebrow, ActionJawClench}
}

// Event is the per-snippet record published by the pipeline to all
// configured sinks. A failed snippet still produces an Event, with
// Failed set and Filter/Action left at their zero values.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Snippet    string      `json:"snippet"`
	Timestamp  time.Time   `json:"timestamp"`
	Filter     FilterKind  `json:"-"`
	Action     ActionLabel `json:"-"`
	FilterName string      `json:"filter,omitempty"`
	ActionName string      `json:"action,omitempty"`
	LatencyMS  float64     `json:"latency_ms"`
	Failed     bool        `json:"failed"`
	FailReason string      `json:"fail_reason,omitempty"`
}

// NewEvent builds a successful classification event.
func NewEvent(snippet string, filter FilterKind, action ActionLabel, latency time.Duration) Event {
	return Event{
		ID:         uuid.New(),
		Snippet:    snippet,
		Timestamp:  time.Now(),
		Filter:     filter,
		Action:     action,
		FilterName: filter.String(),
		ActionName: action.String(),
		LatencyMS:  float64(latency.Microseconds()) / 1000.0,
	}
}

// NewFailedEvent builds an event for a snippet that could not be
// classified. The identifier is still consumed by the watcher.
func NewFailedEvent(snippet string, reason error) Event {
	return Event{
		ID:         uuid.New(),
		Snippet:    snippet,
		Timestamp:  time.Now(),
		Failed:     true,
		FailReason: reason.Error(),
	}
}
