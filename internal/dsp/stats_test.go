package dsp

import (
	"math"
	"testing"
)

const statsEpsilon = 1e-9

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= statsEpsilon
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); !closeEnough(got, 2.5) {
		t.Errorf("Mean = %v, want 2.5", got)
	}
	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("Mean of empty input = %v, want NaN", got)
	}
}

func TestPopVariance(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"symmetric", []float64{1, 2, 3, 4}, 1.25},
		{"constant", []float64{7, 7, 7}, 0},
		{"single", []float64{3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PopVariance(tt.x); !closeEnough(got, tt.want) {
				t.Errorf("PopVariance(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
	if got := PopStd([]float64{1, 2, 3, 4}); !closeEnough(got, math.Sqrt(1.25)) {
		t.Errorf("PopStd = %v, want sqrt(1.25)", got)
	}
}

func TestSkewness(t *testing.T) {
	// Biased estimator: m3 / m2^1.5 without small-sample correction.
	if got := Skewness([]float64{1, 2, 3, 4, 5}); !closeEnough(got, 0) {
		t.Errorf("symmetric input skewness = %v, want 0", got)
	}
	got := Skewness([]float64{1, 2, 3, 5})
	if math.Abs(got-0.43465) > 1e-5 {
		t.Errorf("Skewness({1,2,3,5}) = %v, want 0.43465", got)
	}
	if got := Skewness([]float64{4, 4, 4}); !math.IsNaN(got) {
		t.Errorf("constant input skewness = %v, want NaN", got)
	}
}

func TestExKurtosis(t *testing.T) {
	// Biased estimator: m4 / m2^2 - 3.
	got := ExKurtosis([]float64{1, 2, 3, 5})
	want := 2261.0/1225.0 - 3
	if !closeEnough(got, want) {
		t.Errorf("ExKurtosis({1,2,3,5}) = %v, want %v", got, want)
	}
	if got := ExKurtosis([]float64{4, 4, 4}); !math.IsNaN(got) {
		t.Errorf("constant input kurtosis = %v, want NaN", got)
	}
}

func TestNaNMean(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"no NaN", []float64{1, 2, 3}, 2},
		{"skips NaN", []float64{1, nan, 3}, 2},
		{"leading NaN", []float64{nan, 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NaNMean(tt.x); !closeEnough(got, tt.want) {
				t.Errorf("NaNMean(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
	if got := NaNMean([]float64{nan, nan}); !math.IsNaN(got) {
		t.Errorf("NaNMean of all-NaN input = %v, want NaN", got)
	}
	if got := NaNMean(nil); !math.IsNaN(got) {
		t.Errorf("NaNMean of empty input = %v, want NaN", got)
	}
}
