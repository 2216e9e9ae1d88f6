package dsp

import (
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

// directConvolveLimit is the output length above which ConvolveSame
// switches from the direct sum to FFT convolution.
const directConvolveLimit = 500

// ConvolveSame convolves a with v and returns the central len(a) samples
// of the full convolution.
func ConvolveSame(a, v []float64) []float64 {
	if len(a) == 0 || len(v) == 0 {
		return nil
	}

	var full []float64
	if len(a) > directConvolveLimit {
		full = fftConvolve(a, v)
	} else {
		full = directConvolve(a, v)
	}

	start := (len(full) - len(a)) / 2
	out := make([]float64, len(a))
	copy(out, full[start:start+len(a)])
	return out
}

func directConvolve(a, v []float64) []float64 {
	full := make([]float64, len(a)+len(v)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, vv := range v {
			full[i+j] += av * vv
		}
	}
	return full
}

func fftConvolve(a, v []float64) []float64 {
	n := len(a) + len(v) - 1
	fft := fourier.NewFFT(n)

	pa := make([]float64, n)
	copy(pa, a)
	pv := make([]float64, n)
	copy(pv, v)

	ca := fft.Coefficients(nil, pa)
	cv := fft.Coefficients(nil, pv)
	for i := range ca {
		ca[i] *= cv[i]
	}

	full := fft.Sequence(nil, ca)
	scale := 1 / float64(n)
	for i := range full {
		full[i] *= scale
	}
	return full
}

// Interp linearly interpolates the points (xp, fp) at x. xp must be
// increasing; values outside the range clamp to the end points.
func Interp(x, xp, fp []float64) []float64 {
	out := make([]float64, len(x))
	last := len(xp) - 1
	for i, v := range x {
		switch {
		case v <= xp[0]:
			out[i] = fp[0]
		case v >= xp[last]:
			out[i] = fp[last]
		default:
			j := sort.SearchFloat64s(xp, v)
			if xp[j] == v {
				out[i] = fp[j]
				continue
			}
			x0, x1 := xp[j-1], xp[j]
			out[i] = fp[j-1] + (v-x0)*(fp[j]-fp[j-1])/(x1-x0)
		}
	}
	return out
}
