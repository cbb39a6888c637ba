// snippet-gen writes synthetic sine-wave snippets in the intake CSV
// format, for demos and latency benchmarking. It follows the producer
// contract: files are written to a temporary name and renamed into
// place, and identifiers use the `<prefix>_<NN>.csv` counter
// convention.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

func main() {
	dir := flag.String("dir", "buffer", "Intake directory to write snippets into")
	prefix := flag.String("prefix", "buffer", "Snippet identifier prefix")
	channels := flag.Int("channels", 5, "Number of channels")
	rate := flag.Float64("rate", 256, "Sampling rate in Hz")
	seconds := flag.Float64("seconds", 2.5, "Snippet duration in seconds")
	freq := flag.Float64("freq", 2, "Sine frequency in Hz")
	amplitude := flag.Float64("amplitude", 100, "Sine amplitude in microvolts")
	count := flag.Int("count", 1, "Number of snippets to generate")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "creating %s: %v\n", *dir, err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		name, err := nextName(*dir, *prefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if err := writeSnippet(*dir, name, *channels, *rate, *seconds, *freq, *amplitude); err != nil {
			fmt.Fprintf(os.Stderr, "writing %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", filepath.Join(*dir, name))
	}
}

// nextName scans the directory for the highest existing counter with
// the given prefix and returns the next identifier.
func nextName(dir, prefix string) (string, error) {
	pattern, err := regexp.Compile("^" + regexp.QuoteMeta(prefix) + `_(\d+)\.csv$`)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	maxNum := 0
	for _, entry := range entries {
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNum {
			maxNum = n
		}
	}
	return fmt.Sprintf("%s_%02d.csv", prefix, maxNum+1), nil
}

func writeSnippet(dir, name string, channels int, rate, seconds, freq, amplitude float64) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	header := "timestamps,TP9,AF7,AF8,TP10"
	if channels >= 5 {
		header += ",Right AUX"
	}
	for c := 5; c < channels; c++ {
		header += fmt.Sprintf(",AUX%d", c-3)
	}
	if _, err := fmt.Fprintln(tmp, header); err != nil {
		tmp.Close()
		return err
	}

	samples := int(math.Round(rate * seconds))
	for i := 0; i < samples; i++ {
		t := float64(i) / rate
		v := amplitude * math.Sin(2*math.Pi*freq*t)
		if _, err := fmt.Fprintf(tmp, "%.6f", t); err != nil {
			tmp.Close()
			return err
		}
		for c := 0; c < channels; c++ {
			if _, err := fmt.Fprintf(tmp, ",%.6f", v); err != nil {
				tmp.Close()
				return err
			}
		}
		if _, err := fmt.Fprintln(tmp); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Atomic rename: the watcher must never observe a partial file.
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
