// Package pipeline drives the real-time classification loop: it
// watches the intake directory for new snippets, runs each one through
// the two-stage classification state machine, and publishes one Event
// per snippet to the configured sinks.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Watcher tracks which snippet identifiers have already been consumed
// and yields newly arrived ones in ascending lexicographic order.
//
// An identifier is marked consumed after a processing attempt, success
// or failure, which guarantees at-most-once processing for the
// lifetime of the process: a file rewritten in place is never picked
// up again. The watcher never deletes or moves files.
//
// It relies on the producer making files visible atomically
// (write-then-rename); partially written files must never appear under
// a .csv name.
type Watcher struct {
	dir      string
	consumed map[string]struct{}
}

// NewWatcher creates a watcher over the intake directory. Files
// already present are NOT pre-marked: a fresh process will consume the
// backlog.
func NewWatcher(dir string) *Watcher {
	return &Watcher{
		dir:      dir,
		consumed: make(map[string]struct{}),
	}
}

// Dir returns the intake directory being watched.
func (w *Watcher) Dir() string { return w.dir }

// Poll lists the intake directory and returns the snippet identifiers
// not yet consumed, sorted ascending. Only regular files with a .csv
// suffix are considered; anything else in the directory is ignored.
func (w *Watcher) Poll() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("listing intake directory %s: %w", w.dir, err)
	}

	var fresh []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".csv") {
			continue
		}
		if _, done := w.consumed[name]; done {
			continue
		}
		fresh = append(fresh, name)
	}
	sort.Strings(fresh)
	return fresh, nil
}

// MarkConsumed records that a processing attempt was made for the
// identifier.
func (w *Watcher) MarkConsumed(name string) {
	w.consumed[name] = struct{}{}
}

// Path returns the full path of a snippet identifier.
func (w *Watcher) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// ConsumedCount returns how many identifiers have been consumed.
func (w *Watcher) ConsumedCount() int {
	return len(w.consumed)
}
