package dsp

import "math"

// The moment statistics below use population (biased) estimators, not
// the sample-corrected forms: the persisted classifiers were trained
// on features computed with population moments, and mixing estimator
// families would silently shift the feature space.

// Mean returns the arithmetic mean of x, or NaN for empty input.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// PopVariance returns the population variance of x (normalized by n).
func PopVariance(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	mean := Mean(x)
	var sum float64
	for _, v := range x {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(x))
}

// PopStd returns the population standard deviation of x.
func PopStd(x []float64) float64 {
	return math.Sqrt(PopVariance(x))
}

// Skewness returns the biased sample skewness m3/m2^(3/2). A constant
// input has undefined skewness and yields NaN.
func Skewness(x []float64) float64 {
	m2, m3, _ := centralMoments(x)
	if m2 == 0 {
		return math.NaN()
	}
	return m3 / math.Pow(m2, 1.5)
}

// ExKurtosis returns the biased excess kurtosis m4/m2² − 3. A constant
// input has undefined kurtosis and yields NaN.
func ExKurtosis(x []float64) float64 {
	m2, _, m4 := centralMoments(x)
	if m2 == 0 {
		return math.NaN()
	}
	return m4/(m2*m2) - 3
}

// NaNMean returns the mean of the non-NaN entries of x, or NaN if all
// entries are NaN.
func NaNMean(x []float64) float64 {
	var sum float64
	var n int
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func centralMoments(x []float64) (m2, m3, m4 float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	mean := Mean(x)
	for _, v := range x {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(x))
	return m2 / n, m3 / n, m4 / n
}
