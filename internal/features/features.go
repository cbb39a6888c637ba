// Package features builds the feature vectors consumed by the two
// classification stages. It is the single source of truth for feature
// ordering: any offline tooling that prepares training data must use
// this package, never a reimplementation, or train-time and
// inference-time features will silently diverge.
package features

import (
	"math"

	"github.com/mindwheel/mindwheel/internal/dsp"
)

// Band edges (Hz) for the filter-selection summary features.
const (
	highBandLow  = 20.0
	highBandHigh = 50.0
	lowBandLow   = 0.1
	lowBandHigh  = 4.0
)

// FilterFeatureCount is the length of the filter-selection feature
// vector.
const FilterFeatureCount = 6

// FilterVector computes the 6 summary statistics used to select a
// conditioning filter, from the unconditioned analysis window
// (channels × timepoints). Order is fixed:
//
//	0: mean per-channel variance
//	1: mean per-channel skewness (NaN channels skipped)
//	2: mean per-channel kurtosis (NaN channels skipped)
//	3: mean band power in [20, 50] Hz
//	4: mean band power in [0.1, 4] Hz
//	5: ratio of high-band to low-band power (+Inf when the low band
//	   carries exactly zero power)
func FilterVector(window [][]float64, fs float64) []float64 {
	nch := len(window)
	variances := make([]float64, nch)
	skews := make([]float64, nch)
	kurts := make([]float64, nch)
	highPowers := make([]float64, nch)
	lowPowers := make([]float64, nch)

	for i, ch := range window {
		variances[i] = dsp.PopVariance(ch)
		skews[i] = dsp.Skewness(ch)
		kurts[i] = dsp.ExKurtosis(ch)
		highPowers[i] = dsp.BandPower(ch, fs, highBandLow, highBandHigh)
		lowPowers[i] = dsp.BandPower(ch, fs, lowBandLow, lowBandHigh)
	}

	high := dsp.Mean(highPowers)
	low := dsp.Mean(lowPowers)
	ratio := math.Inf(1)
	if low != 0 {
		ratio = high / low
	}

	return []float64{
		dsp.Mean(variances),
		dsp.NaNMean(skews),
		dsp.NaNMean(kurts),
		high,
		low,
		ratio,
	}
}

// ActionVectorLen returns the action feature vector length for a given
// channel count: 2 spectral stats per channel plus 4 time-domain stats
// per channel.
func ActionVectorLen(channels int) int {
	return 6 * channels
}

// ActionVector computes the action-classification feature vector from
// the conditioned analysis window. The concatenation order is
// load-bearing and must match the order used when the persisted
// classifier was trained:
//
//	per channel, in channel order: mean(PSD), std(PSD);
//	then across all channels: means, stds, skewnesses, kurtoses.
func ActionVector(window [][]float64, fs float64) []float64 {
	nch := len(window)
	vec := make([]float64, 0, ActionVectorLen(nch))

	for _, ch := range window {
		_, psd := dsp.Welch(ch, fs)
		vec = append(vec, dsp.Mean(psd), dsp.PopStd(psd))
	}
	for _, ch := range window {
		vec = append(vec, dsp.Mean(ch))
	}
	for _, ch := range window {
		vec = append(vec, dsp.PopStd(ch))
	}
	for _, ch := range window {
		vec = append(vec, dsp.Skewness(ch))
	}
	for _, ch := range window {
		vec = append(vec, dsp.ExKurtosis(ch))
	}
	return vec
}
