// Package snippet loads raw EEG snippet files from the intake
// directory and selects the fixed-length analysis window used for one
// classification cycle.
//
// The intake format is CSV with a header row of
// `timestamps,TP9,AF7,AF8,TP10[,Right AUX]`: the first column is the
// sample timestamp, the remaining columns are per-channel voltages in
// a fixed order identical across all snippets. The producer must make
// files visible atomically (write to a temp name, then rename).
package snippet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
)

// ErrMalformedSnippet reports unparsable snippet content. It is always
// recovered locally: the snippet is skipped and marked consumed.
var ErrMalformedSnippet = errors.New("malformed snippet")

// ErrChannelCountMismatch reports a snippet whose column count does
// not match the configured channel count. Mismatches fail fast rather
// than silently truncating.
var ErrChannelCountMismatch = errors.New("channel count mismatch")

// Snippet holds the numeric content of one intake file as a
// channels × timepoints matrix, plus the parsed sample timestamps.
type Snippet struct {
	Name       string
	Timestamps []float64
	// Data is indexed [channel][timepoint]; channel order follows the
	// header columns.
	Data [][]float64
}

// Timepoints returns the number of samples per channel.
func (s *Snippet) Timepoints() int {
	if len(s.Data) == 0 {
		return 0
	}
	return len(s.Data[0])
}

// Load reads and parses the snippet at path. channels is the expected
// channel count; a header with a different number of value columns
// fails with ErrChannelCountMismatch, and any non-numeric data row
// fails with ErrMalformedSnippet.
func Load(path string, channels int) (*Snippet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnippet, err)
	}
	defer f.Close()
	return Parse(f, path, channels)
}

// Parse reads snippet CSV content from r. Exposed separately from Load
// for testing and for callers that already hold an open stream.
func Parse(r io.Reader, name string, channels int) (*Snippet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header of %s: %v", ErrMalformedSnippet, name, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: %s header has %d columns", ErrMalformedSnippet, name, len(header))
	}
	if got := len(header) - 1; got != channels {
		return nil, fmt.Errorf("%w: %s has %d channels, expected %d", ErrChannelCountMismatch, name, got, channels)
	}

	var timestamps []float64
	data := make([][]float64, channels)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrMalformedSnippet, name, err)
		}
		if len(record) != channels+1 {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, expected %d", ErrChannelCountMismatch, name, len(timestamps)+2, len(record), channels+1)
		}
		ts, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d timestamp %q", ErrMalformedSnippet, name, len(timestamps)+2, record[0])
		}
		timestamps = append(timestamps, ts)
		for c := 0; c < channels; c++ {
			v, err := strconv.ParseFloat(record[c+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d column %d value %q", ErrMalformedSnippet, name, len(timestamps)+1, c+1, record[c+1])
			}
			data[c] = append(data[c], v)
		}
	}

	return &Snippet{Name: name, Timestamps: timestamps, Data: data}, nil
}

// WindowLength returns the fixed analysis window length for a sampling
// rate: round(fs · 2.5 s).
func WindowLength(fs float64) int {
	return int(math.Round(fs * 2.5))
}

// SelectWindow returns the analysis window for the snippet. Snippets
// longer than the window length contribute a contiguous sub-sequence
// whose start offset is drawn uniformly from [0, timepoints−L];
// shorter-or-equal snippets pass through unmodified (no padding).
//
// The returned matrix shares backing storage with the snippet; callers
// that mutate the window must copy first.
func (s *Snippet) SelectWindow(fs float64, rng *rand.Rand) [][]float64 {
	length := WindowLength(fs)
	n := s.Timepoints()
	if n <= length {
		return s.Data
	}
	start := rng.Intn(n - length + 1)
	window := make([][]float64, len(s.Data))
	for c, ch := range s.Data {
		window[c] = ch[start : start+length]
	}
	return window
}
