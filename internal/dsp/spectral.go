package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Hilbert returns the analytic signal of x computed with an n-point FFT.
// x is truncated or zero padded to n samples.
func Hilbert(x []float64, n int) ([]complex128, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: hilbert length %d", ErrInvalidParameter, n)
	}

	seq := make([]complex128, n)
	for i := 0; i < n && i < len(x); i++ {
		seq[i] = complex(x[i], 0)
	}

	fft := fourier.NewCmplxFFT(n)
	coeff := fft.Coefficients(nil, seq)

	h := make([]float64, n)
	h[0] = 1
	if n%2 == 0 {
		h[n/2] = 1
		for i := 1; i < n/2; i++ {
			h[i] = 2
		}
	} else {
		for i := 1; i < (n+1)/2; i++ {
			h[i] = 2
		}
	}
	for i := range coeff {
		coeff[i] *= complex(h[i], 0)
	}

	analytic := fft.Sequence(nil, coeff)
	scale := complex(1/float64(n), 0)
	for i := range analytic {
		analytic[i] *= scale
	}
	return analytic, nil
}

// Resample resamples x to num samples with the Fourier method, weighting
// the spectrum with a periodic Kaiser window of shape beta.
func Resample(x []float64, num int, beta float64) ([]float64, error) {
	nx := len(x)
	if num < 1 {
		return nil, fmt.Errorf("%w: resample length %d", ErrInvalidParameter, num)
	}
	if nx < 1 {
		return nil, fmt.Errorf("%w: empty signal", ErrInvalidParameter)
	}

	spectrum := fourier.NewFFT(nx).Coefficients(nil, x)

	// window is applied in ifftshift order and folded onto the half spectrum
	w := ifftShift(KaiserPeriodic(nx, beta))
	folded := make([]float64, nx)
	copy(folded, w)
	for i := 1; i < nx; i++ {
		folded[i] = 0.5 * (w[i] + w[nx-i])
	}
	for i := range spectrum {
		spectrum[i] *= complex(folded[i], 0)
	}

	out := make([]complex128, num/2+1)
	m := min(num, nx)
	nyq := m/2 + 1
	copy(out, spectrum[:min(nyq, len(spectrum))])
	if m%2 == 0 {
		switch {
		case num < nx:
			out[m/2] *= 2
		case nx < num:
			out[m/2] *= 0.5
		}
	}

	y := fourier.NewFFT(num).Sequence(nil, out)
	scale := 1 / float64(nx)
	for i := range y {
		y[i] *= scale
	}
	return y, nil
}

func ifftShift(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	shift := n / 2
	for i := range n {
		out[i] = x[(i+shift)%n]
	}
	return out
}
