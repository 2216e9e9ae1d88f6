// Package dsp holds the one-dimensional signal processing primitives the
// smoothing, peak and mollifier thresholders are built from. Filters keep
// the input length and reflect or pad at the edges as documented on each
// function.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// KaiserPeriodic returns the periodic (DFT-even) Kaiser window of length n
// with shape parameter beta.
func KaiserPeriodic(n int, beta float64) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{1}
	}
	// periodic window of n is the symmetric window of n+1 without its last point
	m := float64(n)
	w := make([]float64, n)
	for k := range n {
		r := 2*float64(k)/m - 1
		a := beta * math.Sqrt(math.Max(0, 1-r*r))
		w[k] = besselI0e(a) * math.Exp(a-beta) / besselI0e(beta)
	}
	return w
}

// Hamming returns the symmetric Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	if n == 1 {
		return w
	}
	return window.Hamming(w)
}

// besselI0e is the exponentially scaled modified Bessel function of the
// first kind of order zero, exp(-|x|)·I0(x).
func besselI0e(x float64) float64 {
	x = math.Abs(x)
	if x <= 30 {
		// power series
		sum, term := 1.0, 1.0
		q := x * x / 4
		for k := 1; k < 500; k++ {
			term *= q / float64(k*k)
			sum += term
			if term < sum*1e-17 {
				break
			}
		}
		return sum * math.Exp(-x)
	}

	// asymptotic expansion
	sum, term := 1.0, 1.0
	for k := 1; k < 30; k++ {
		f := float64(2*k - 1)
		next := term * f * f / (8 * x * float64(k))
		if next > term {
			break
		}
		term = next
		sum += term
	}
	return sum / math.Sqrt(2*math.Pi*x)
}
