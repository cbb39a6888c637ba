// Package dsp implements the numeric signal processing used by the
// classification pipeline: Welch spectral density estimation, band
// power integration, Butterworth band-pass design, and zero-phase
// forward-backward filtering.
//
// The estimators reproduce the reference implementations the models
// were trained against (Hann-windowed averaged periodograms with 50%
// overlap, bilinear-transform Butterworth design, odd-extension
// forward-backward filtering). Changing any constant here changes the
// feature space under a persisted classifier.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/integrate"
)

// welchMaxSegment is the default segment length for Welch estimation.
// Shorter inputs use a single segment of the full input length.
const welchMaxSegment = 256

// Welch estimates the one-sided power spectral density of x sampled at
// fs Hz using Welch's method: the signal is split into Hann-windowed
// segments of length min(256, len(x)) with 50% overlap, each segment
// is mean-detrended, and the scaled periodograms are averaged.
//
// Returned frequencies run from 0 to the Nyquist frequency. The
// density is scaled so that integrating it over frequency recovers the
// signal power (units²/Hz).
func Welch(x []float64, fs float64) (freqs, psd []float64) {
	n := len(x)
	if n == 0 || fs <= 0 {
		return nil, nil
	}

	nperseg := welchMaxSegment
	if n < nperseg {
		nperseg = n
	}
	noverlap := nperseg / 2
	step := nperseg - noverlap
	if step < 1 {
		step = 1
	}

	window := hann(nperseg)
	var winSumSq float64
	for _, w := range window {
		winSumSq += w * w
	}
	// Density scaling: 2/(fs·Σw²) with DC (and Nyquist, for even
	// segment lengths) not doubled.
	scale := 1.0 / (fs * winSumSq)

	nbins := nperseg/2 + 1
	fft := fourier.NewFFT(nperseg)
	psd = make([]float64, nbins)
	seg := make([]float64, nperseg)
	coeffs := make([]complex128, nbins)

	segments := 0
	for start := 0; start+nperseg <= n; start += step {
		copy(seg, x[start:start+nperseg])

		var mean float64
		for _, v := range seg {
			mean += v
		}
		mean /= float64(nperseg)
		for i := range seg {
			seg[i] = (seg[i] - mean) * window[i]
		}

		coeffs = fft.Coefficients(coeffs, seg)
		for i, c := range coeffs {
			p := (real(c)*real(c) + imag(c)*imag(c)) * scale
			if i != 0 && !(nperseg%2 == 0 && i == nbins-1) {
				p *= 2
			}
			psd[i] += p
		}
		segments++
	}

	if segments == 0 {
		return nil, nil
	}
	for i := range psd {
		psd[i] /= float64(segments)
	}

	freqs = make([]float64, nbins)
	for i := range freqs {
		freqs[i] = float64(i) * fs / float64(nperseg)
	}
	return freqs, psd
}

// BandPower integrates a Welch density estimate of x over the passband
// [lowHz, highHz] using the trapezoid rule. Bands covering fewer than
// two frequency bins carry no integrable power and yield 0.
func BandPower(x []float64, fs, lowHz, highHz float64) float64 {
	freqs, psd := Welch(x, fs)
	lo, hi := -1, -1
	for i, f := range freqs {
		if f >= lowHz && f <= highHz {
			if lo < 0 {
				lo = i
			}
			hi = i
		}
	}
	if lo < 0 || hi-lo < 1 {
		return 0
	}
	return integrate.Trapezoidal(freqs[lo:hi+1], psd[lo:hi+1])
}

// hann returns a periodic Hann window of length n, the window used for
// spectral analysis (as opposed to the symmetric filter-design form).
func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
