package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// bandpassOrder is the Butterworth prototype order used for snippet
// conditioning. The resulting band-pass transfer function has
// 2*bandpassOrder+1 coefficients in each of b and a.
const bandpassOrder = 4

// BandPass is a 4th-order Butterworth band-pass filter applied with
// zero-phase (forward-backward) filtering. Coefficients are designed
// once and reused across channels and snippets.
type BandPass struct {
	b, a []float64
}

// NewBandPass designs a 4th-order Butterworth band-pass filter for the
// passband [lowHz, highHz] at sampling rate fs, using the bilinear
// transform of the analog prototype.
func NewBandPass(lowHz, highHz, fs float64) (*BandPass, error) {
	if fs <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %v", fs)
	}
	nyq := fs / 2
	if lowHz <= 0 || highHz <= lowHz || highHz >= nyq {
		return nil, fmt.Errorf("passband (%v, %v) Hz invalid for Nyquist %v Hz", lowHz, highHz, nyq)
	}

	b, a := butterBand(bandpassOrder, lowHz/nyq, highHz/nyq)
	return &BandPass{b: b, a: a}, nil
}

// Apply filters x forward and backward so the output has zero phase
// distortion. The input must be longer than 3*(2*order+1) samples to
// accommodate the edge-transient padding.
func (f *BandPass) Apply(x []float64) ([]float64, error) {
	return filtFilt(f.b, f.a, x)
}

// Coefficients returns copies of the numerator and denominator
// coefficient vectors.
func (f *BandPass) Coefficients() (b, a []float64) {
	return append([]float64(nil), f.b...), append([]float64(nil), f.a...)
}

// butterBand designs a digital Butterworth band-pass filter of the
// given prototype order. w1 and w2 are the band edges normalized to
// the Nyquist frequency (0 < w1 < w2 < 1). The design path is analog
// prototype → low-pass-to-band-pass transform → bilinear transform,
// with frequency pre-warping.
func butterBand(order int, w1, w2 float64) (b, a []float64) {
	// Pre-warp the band edges for the bilinear transform.
	const fs = 2.0
	warped1 := 2 * fs * math.Tan(math.Pi*w1/fs)
	warped2 := 2 * fs * math.Tan(math.Pi*w2/fs)
	bw := warped2 - warped1
	wo := math.Sqrt(warped1 * warped2)

	// Analog Butterworth prototype: no zeros, poles equally spaced on
	// the left half of the unit circle, unity gain.
	poles := make([]complex128, order)
	for k := 1; k <= order; k++ {
		theta := math.Pi * float64(2*k+order-1) / float64(2*order)
		poles[k-1] = -cmplx.Exp(complex(0, theta))
	}
	gain := 1.0

	// Low-pass to band-pass: scale to bandwidth, duplicate each pole
	// around the center frequency, add `order` zeros at the origin.
	zeros := make([]complex128, 0, 2*order)
	bpPoles := make([]complex128, 0, 2*order)
	for _, p := range poles {
		pl := p * complex(bw/2, 0)
		d := cmplx.Sqrt(pl*pl - complex(wo*wo, 0))
		bpPoles = append(bpPoles, pl+d, pl-d)
	}
	for i := 0; i < order; i++ {
		zeros = append(zeros, 0)
	}
	gain *= math.Pow(bw, float64(order))

	// Bilinear transform to the digital domain. The transfer function
	// gains `degree` zeros at z = -1.
	fs2 := complex(2*fs, 0)
	degree := len(bpPoles) - len(zeros)
	numRoots := make([]complex128, 0, 2*order)
	denRoots := make([]complex128, 0, 2*order)
	prodNum := complex(1, 0)
	prodDen := complex(1, 0)
	for _, z := range zeros {
		numRoots = append(numRoots, (fs2+z)/(fs2-z))
		prodNum *= fs2 - z
	}
	for _, p := range bpPoles {
		denRoots = append(denRoots, (fs2+p)/(fs2-p))
		prodDen *= fs2 - p
	}
	for i := 0; i < degree; i++ {
		numRoots = append(numRoots, -1)
	}
	gain *= real(prodNum / prodDen)

	b = realPoly(numRoots)
	a = realPoly(denRoots)
	for i := range b {
		b[i] *= gain
	}
	// The denominator is monic by construction; normalize to absorb
	// floating-point residue.
	a0 := a[0]
	for i := range a {
		a[i] /= a0
	}
	for i := range b {
		b[i] /= a0
	}
	return b, a
}

// realPoly expands the monic polynomial with the given roots and
// returns its real coefficients, highest degree first.
func realPoly(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// lfilter applies the direct-form II transposed IIR filter defined by
// b and a to x, starting from the initial state zi (length
// len(b)-1). b and a must have equal length and a[0] must be 1.
func lfilter(b, a, x, zi []float64) []float64 {
	n := len(b)
	z := append([]float64(nil), zi...)
	y := make([]float64, len(x))
	for i, xv := range x {
		yv := b[0]*xv + z[0]
		for j := 0; j < n-2; j++ {
			z[j] = b[j+1]*xv + z[j+1] - a[j+1]*yv
		}
		z[n-2] = b[n-1]*xv - a[n-1]*yv
		y[i] = yv
	}
	return y
}

// lfilterZI computes the steady-state initial filter delay values for
// a step input, so that forward-backward filtering starts from
// equilibrium instead of zero state. It solves (I - Aᵀ)zi = B where A
// is the companion matrix of a.
func lfilterZI(b, a []float64) ([]float64, error) {
	m := len(a) - 1
	data := make([]float64, m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			var v float64
			if i == j {
				v = 1
			}
			if j == 0 {
				v += a[i+1] / a[0]
			}
			if j == i+1 {
				v -= 1
			}
			data[i*m+j] = v
		}
	}
	rhs := make([]float64, m)
	for i := 0; i < m; i++ {
		rhs[i] = b[i+1] - a[i+1]*b[0]
	}

	var zi mat.VecDense
	if err := zi.SolveVec(mat.NewDense(m, m, data), mat.NewVecDense(m, rhs)); err != nil {
		return nil, fmt.Errorf("initial condition solve failed: %w", err)
	}
	out := make([]float64, m)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// filtFilt applies the filter forward and backward with odd-extension
// padding of length 3*len(a), eliminating phase distortion and edge
// transients.
func filtFilt(b, a, x []float64) ([]float64, error) {
	ntaps := len(b)
	if len(a) > ntaps {
		ntaps = len(a)
	}
	padlen := 3 * ntaps
	if len(x) <= padlen {
		return nil, fmt.Errorf("input length %d must exceed padding length %d", len(x), padlen)
	}

	n := len(x)
	ext := make([]float64, padlen+n+padlen)
	for i := 0; i < padlen; i++ {
		ext[i] = 2*x[0] - x[padlen-i]
		ext[padlen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padlen:], x)

	zi, err := lfilterZI(b, a)
	if err != nil {
		return nil, err
	}

	z0 := make([]float64, len(zi))
	for i, v := range zi {
		z0[i] = v * ext[0]
	}
	y := lfilter(b, a, ext, z0)

	reverse(y)
	for i, v := range zi {
		z0[i] = v * y[0]
	}
	y = lfilter(b, a, y, z0)
	reverse(y)

	return y[padlen : padlen+n], nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
