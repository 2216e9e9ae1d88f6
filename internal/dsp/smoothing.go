package dsp

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidParameter is returned when a filter parameter cannot be applied
// to a signal of the given length.
var ErrInvalidParameter = errors.New("invalid filter parameter")

// gaussianTruncate is the kernel radius in standard deviations.
const gaussianTruncate = 4.0

// GaussianFilter smooths x with a Gaussian kernel of standard deviation
// sigma. Samples beyond the edges are mirrored (d c b a | a b c d).
func GaussianFilter(x []float64, sigma float64) ([]float64, error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("%w: gaussian sigma %v", ErrInvalidParameter, sigma)
	}

	radius := int(gaussianTruncate*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	if radius == 0 {
		weights[0] = 1
	} else {
		var sum float64
		for i := -radius; i <= radius; i++ {
			w := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
			weights[i+radius] = w
			sum += w
		}
		for i := range weights {
			weights[i] /= sum
		}
	}

	n := len(x)
	out := make([]float64, n)
	for i := range n {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += weights[k+radius] * x[reflectIndex(i+k, n)]
		}
		out[i] = acc
	}
	return out, nil
}

// reflectIndex maps i onto [0, n) by half-sample symmetric reflection.
func reflectIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// SavgolFilter applies a first order Savitzky-Golay filter with an odd
// window. Interior points are the window mean; the first and last half
// windows are taken from straight-line fits to the edge windows.
func SavgolFilter(x []float64, windowLength int) ([]float64, error) {
	n := len(x)
	if windowLength < 2 || windowLength%2 == 0 {
		return nil, fmt.Errorf("%w: savgol window %d must be odd and at least 3", ErrInvalidParameter, windowLength)
	}
	if windowLength > n {
		return nil, fmt.Errorf("%w: savgol window %d exceeds %d samples", ErrInvalidParameter, windowLength, n)
	}

	half := windowLength / 2
	prefix := prefixSums(x)
	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		out[i] = (prefix[i+half+1] - prefix[i-half]) / float64(windowLength)
	}

	slope, intercept := lineFit(x[:windowLength])
	for i := range half {
		out[i] = intercept + slope*float64(i)
	}
	slope, intercept = lineFit(x[n-windowLength:])
	for i := n - half; i < n; i++ {
		out[i] = intercept + slope*float64(i-(n-windowLength))
	}
	return out, nil
}

// lineFit is the least squares line through (i, y[i]).
func lineFit(y []float64) (slope, intercept float64) {
	m := float64(len(y))
	if len(y) < 2 {
		if len(y) == 1 {
			return 0, y[0]
		}
		return 0, 0
	}
	var st, sy, stt, sty float64
	for i, v := range y {
		t := float64(i)
		st += t
		sy += v
		stt += t * t
		sty += t * v
	}
	den := m*stt - st*st
	slope = (m*sty - st*sy) / den
	intercept = (sy - slope*st) / m
	return slope, intercept
}

// MedianFilter replaces each sample by the median of an odd window
// centred on it, zero padded at the edges.
func MedianFilter(x []float64, kernel int) ([]float64, error) {
	if kernel < 1 || kernel%2 == 0 {
		return nil, fmt.Errorf("%w: median kernel %d must be odd", ErrInvalidParameter, kernel)
	}

	n := len(x)
	half := kernel / 2
	out := make([]float64, n)
	buf := make([]float64, kernel)
	for i := range n {
		for k := -half; k <= half; k++ {
			j := i + k
			if j < 0 || j >= n {
				buf[k+half] = 0
			} else {
				buf[k+half] = x[j]
			}
		}
		sorted := slices.Clone(buf)
		slices.Sort(sorted)
		out[i] = sorted[half]
	}
	return out, nil
}

// WienerFilter is the adaptive local-statistics denoiser with window size
// `size` and the noise power estimated as the mean local variance.
func WienerFilter(x []float64, size int) ([]float64, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: wiener window %d", ErrInvalidParameter, size)
	}

	n := len(x)
	sq := make([]float64, n)
	for i, v := range x {
		sq[i] = v * v
	}
	lMean := windowSumSame(x, size)
	lVar := windowSumSame(sq, size)
	for i := range n {
		lMean[i] /= float64(size)
		lVar[i] = lVar[i]/float64(size) - lMean[i]*lMean[i]
	}

	var noise float64
	for _, v := range lVar {
		noise += v
	}
	noise /= float64(n)

	out := make([]float64, n)
	for i := range n {
		if lVar[i] < noise {
			out[i] = lMean[i]
			continue
		}
		out[i] = lMean[i] + (1-noise/lVar[i])*(x[i]-lMean[i])
	}
	return out, nil
}

// windowSumSame sums x over [i-ceil((size-1)/2), i+floor((size-1)/2)] for
// every i, treating out-of-range samples as zero.
func windowSumSame(x []float64, size int) []float64 {
	n := len(x)
	prefix := prefixSums(x)
	left := size / 2
	right := (size - 1) / 2
	out := make([]float64, n)
	for i := range n {
		lo := max(i-left, 0)
		hi := min(i+right+1, n)
		if hi > lo {
			out[i] = prefix[hi] - prefix[lo]
		}
	}
	return out
}

func prefixSums(x []float64) []float64 {
	prefix := make([]float64, len(x)+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	return prefix
}
