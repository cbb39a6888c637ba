package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mindwheel/mindwheel/internal/types"
)

// ArtifactSchema is the artifact format version understood by this
// loader. Bump only together with cmd/model-pack.
const ArtifactSchema = 1

// Artifact kinds, recorded in the blob so the two models cannot be
// swapped by a misconfiguration.
const (
	KindFilterSelector   = "filter-selector"
	KindActionClassifier = "action-classifier"
)

// ErrModelArtifactMissing reports that a required artifact file does
// not exist. This is a fatal startup condition: the pipeline cannot
// function without both models.
var ErrModelArtifactMissing = errors.New("model artifact missing")

// Artifact is the on-disk representation of a persisted classifier.
// The filter-selector artifact additionally carries the label codec
// (class names in class-index order, as produced by the trainer's
// label encoder).
type Artifact struct {
	Schema   int      `msgpack:"schema" json:"schema"`
	Kind     string   `msgpack:"kind" json:"kind"`
	Features int      `msgpack:"features" json:"features"`
	Classes  []string `msgpack:"classes,omitempty" json:"classes,omitempty"`
	Trees    []Tree   `msgpack:"trees" json:"trees"`
}

// EncodeArtifact serializes an artifact to its msgpack wire form.
func EncodeArtifact(art *Artifact) ([]byte, error) {
	return msgpack.Marshal(art)
}

// DecodeArtifact parses and validates a msgpack artifact blob.
func DecodeArtifact(data []byte, wantKind string) (*Artifact, error) {
	var art Artifact
	if err := msgpack.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("unable to parse model artifact: %w", err)
	}
	if art.Schema != ArtifactSchema {
		return nil, fmt.Errorf("artifact schema %d not supported (want %d)", art.Schema, ArtifactSchema)
	}
	if art.Kind != wantKind {
		return nil, fmt.Errorf("artifact kind %q does not match expected %q", art.Kind, wantKind)
	}
	return &art, nil
}

func readArtifact(path, wantKind string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelArtifactMissing, path)
		}
		return nil, fmt.Errorf("reading model artifact %s: %w", path, err)
	}
	return DecodeArtifact(data, wantKind)
}

// FilterSelector couples the filter-selection forest with its label
// codec.
type FilterSelector struct {
	forest *Forest
	kinds  []types.FilterKind
}

// LoadFilterSelector loads the filter-selection artifact from path.
// Every class name in the codec must resolve to a known FilterKind.
func LoadFilterSelector(path string) (*FilterSelector, error) {
	art, err := readArtifact(path, KindFilterSelector)
	if err != nil {
		return nil, err
	}
	if len(art.Classes) == 0 {
		return nil, fmt.Errorf("filter-selector artifact %s carries no label codec", path)
	}
	forest, err := NewForest(art.Trees, art.Features, len(art.Classes))
	if err != nil {
		return nil, fmt.Errorf("filter-selector artifact %s: %w", path, err)
	}
	kinds := make([]types.FilterKind, len(art.Classes))
	for i, name := range art.Classes {
		kind, err := types.FilterKindFromName(name)
		if err != nil {
			return nil, fmt.Errorf("filter-selector artifact %s: %w", path, err)
		}
		kinds[i] = kind
	}
	return &FilterSelector{forest: forest, kinds: kinds}, nil
}

// Features returns the expected feature vector length.
func (s *FilterSelector) Features() int { return s.forest.Features() }

// Select predicts the conditioning filter for a filter feature vector.
func (s *FilterSelector) Select(x []float64) (types.FilterKind, error) {
	idx, err := s.forest.Predict(x)
	if err != nil {
		return 0, err
	}
	return s.kinds[idx], nil
}

// ActionClassifier wraps the action forest with the fixed index→label
// table.
type ActionClassifier struct {
	forest *Forest
}

// LoadActionClassifier loads the action-classification artifact from
// path. The artifact must declare exactly the four action classes.
func LoadActionClassifier(path string) (*ActionClassifier, error) {
	art, err := readArtifact(path, KindActionClassifier)
	if err != nil {
		return nil, err
	}
	forest, err := NewForest(art.Trees, art.Features, len(types.AllActionLabels()))
	if err != nil {
		return nil, fmt.Errorf("action-classifier artifact %s: %w", path, err)
	}
	return &ActionClassifier{forest: forest}, nil
}

// Features returns the expected feature vector length.
func (c *ActionClassifier) Features() int { return c.forest.Features() }

// Classify predicts the action label for an action feature vector.
func (c *ActionClassifier) Classify(x []float64) (types.ActionLabel, error) {
	idx, err := c.forest.Predict(x)
	if err != nil {
		return 0, err
	}
	return types.ActionLabelFromIndex(idx)
}
