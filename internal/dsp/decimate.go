package dsp

import (
	"fmt"
	"math"
	"slices"
)

// Firwin designs a linear-phase lowpass FIR filter with numTaps taps, a
// cutoff relative to Nyquist and a Hamming window, scaled to unit gain at
// DC.
func Firwin(numTaps int, cutoff float64) []float64 {
	alpha := 0.5 * float64(numTaps-1)
	win := Hamming(numTaps)
	h := make([]float64, numTaps)
	var sum float64
	for m := range numTaps {
		h[m] = cutoff * sinc(cutoff*(float64(m)-alpha)) * win[m]
		sum += h[m]
	}
	for m := range h {
		h[m] /= sum
	}
	return h
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// Decimate lowpass filters x with a zero-phase Hamming FIR of order 20q
// and keeps every q-th sample. The output has ceil(len(x)/q) samples.
func Decimate(x []float64, q int) ([]float64, error) {
	if q < 1 {
		return nil, fmt.Errorf("%w: decimation factor %d", ErrInvalidParameter, q)
	}
	if q == 1 {
		return slices.Clone(x), nil
	}

	halfLen := 10 * q
	h := Firwin(2*halfLen+1, 1/float64(q))

	n := len(x)
	outLen := (n + q - 1) / q
	out := make([]float64, outLen)
	for k := range outLen {
		center := k*q + halfLen
		var acc float64
		for j, hv := range h {
			idx := center - j
			if idx >= 0 && idx < n {
				acc += hv * x[idx]
			}
		}
		out[k] = acc
	}
	return out, nil
}
