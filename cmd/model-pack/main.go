// model-pack converts a JSON forest description exported by the
// offline trainer into the msgpack artifact format the pipeline loads
// at startup. The artifact codec is shared with the runtime loader, so
// a blob that packs successfully is guaranteed to load.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mindwheel/mindwheel/internal/model"
	"github.com/mindwheel/mindwheel/internal/types"
)

func main() {
	in := flag.String("in", "", "Path to the JSON forest description")
	out := flag.String("out", "", "Path to write the msgpack artifact to")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "both -in and -out are required")
		flag.Usage()
		os.Exit(1)
	}

	if err := pack(*in, *out); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("packed %s -> %s\n", *in, *out)
}

func pack(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	var art model.Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return fmt.Errorf("parsing %s: %w", in, err)
	}
	if art.Schema == 0 {
		art.Schema = model.ArtifactSchema
	}

	blob, err := model.EncodeArtifact(&art)
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}

	// Re-validate through the runtime codec so broken artifacts are
	// rejected at pack time, not at pipeline startup.
	if _, err := model.DecodeArtifact(blob, art.Kind); err != nil {
		return fmt.Errorf("artifact failed validation: %w", err)
	}
	classes := len(art.Classes)
	if art.Kind == model.KindActionClassifier {
		classes = len(types.AllActionLabels())
	}
	if _, err := model.NewForest(art.Trees, art.Features, classes); err != nil {
		return fmt.Errorf("forest failed validation: %w", err)
	}

	// Write to a temporary file first, then rename for atomicity.
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
