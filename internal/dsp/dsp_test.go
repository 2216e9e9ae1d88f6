package dsp

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.5 + 0.25*float64(i)
	}
	return x
}

func noisy(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()
	}
	return x
}

func TestReflectIndex(t *testing.T) {
	t.Parallel()

	// d c b a | a b c d | d c b a
	n := 4
	assert.Equal(t, 0, reflectIndex(-1, n))
	assert.Equal(t, 3, reflectIndex(-4, n))
	assert.Equal(t, 3, reflectIndex(4, n))
	assert.Equal(t, 0, reflectIndex(7, n))
	assert.Equal(t, 0, reflectIndex(8, n))
}

func TestGaussianFilterKeepsConstant(t *testing.T) {
	t.Parallel()

	x := []float64{2, 2, 2, 2, 2, 2}
	out, err := GaussianFilter(x, 3.5)
	require.NoError(t, err)
	for _, v := range out {
		assert.InDelta(t, 2.0, v, 1e-12)
	}

	_, err = GaussianFilter(x, -1)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSavgolFilterReproducesLine(t *testing.T) {
	t.Parallel()

	x := ramp(15)
	out, err := SavgolFilter(x, 5)
	require.NoError(t, err)
	require.Len(t, out, len(x))
	for i := range x {
		assert.InDelta(t, x[i], out[i], 1e-9)
	}

	_, err = SavgolFilter(x, 4)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = SavgolFilter(x, 17)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestMedianFilter(t *testing.T) {
	t.Parallel()

	out, err := MedianFilter([]float64{1, 9, 2, 3, 8}, 3)
	require.NoError(t, err)
	// zero padding pulls the edges down
	assert.Equal(t, []float64{1, 2, 3, 3, 3}, out)
}

func TestWienerFilterIsFinite(t *testing.T) {
	t.Parallel()

	x := noisy(64, 7)
	out, err := WienerFilter(x, len(x))
	require.NoError(t, err)
	require.Len(t, out, len(x))
	for _, v := range out {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestFirwinUnitGain(t *testing.T) {
	t.Parallel()

	h := Firwin(41, 0.5)
	var sum float64
	for _, v := range h {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	// linear phase
	for i := range h {
		assert.InDelta(t, h[i], h[len(h)-1-i], 1e-12)
	}
}

func TestDecimateConstant(t *testing.T) {
	t.Parallel()

	x := make([]float64, 200)
	for i := range x {
		x[i] = 3
	}
	out, err := Decimate(x, 2)
	require.NoError(t, err)
	require.Len(t, out, 100)
	for k := 10; k < 90; k++ {
		assert.InDelta(t, 3.0, out[k], 1e-9)
	}

	odd, err := Decimate(x[:11], 3)
	require.NoError(t, err)
	assert.Len(t, odd, 4)
}

func TestDetrend(t *testing.T) {
	t.Parallel()

	out := Detrend(ramp(10), nil)
	for _, v := range out {
		assert.InDelta(t, 0.0, v, 1e-12)
	}

	// two lines with a kink at index 5
	x := []float64{0, 1, 2, 3, 4, 10, 8, 6, 4, 2}
	out = Detrend(x, []int{5})
	for _, v := range out {
		assert.InDelta(t, 0.0, v, 1e-12)
	}
}

func TestLinspaceInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 3, 6, 9}, LinspaceInt(0, 9, 4))
	assert.Nil(t, LinspaceInt(0, 9, 0))
}

func TestHilbertRealPartIsSignal(t *testing.T) {
	t.Parallel()

	x := noisy(33, 3)
	analytic, err := Hilbert(x, len(x))
	require.NoError(t, err)
	for i := range x {
		assert.InDelta(t, x[i], real(analytic[i]), 1e-9)
	}

	padded, err := Hilbert(x, 40)
	require.NoError(t, err)
	assert.Len(t, padded, 40)

	_, err = Hilbert(x, 0)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestResampleConstant(t *testing.T) {
	t.Parallel()

	x := make([]float64, 16)
	for i := range x {
		x[i] = 0.75
	}
	out, err := Resample(x, 4, 5)
	require.NoError(t, err)
	require.Len(t, out, 4)
	for _, v := range out {
		assert.InDelta(t, 0.75, v, 1e-9)
	}
}

func TestKaiserPeriodic(t *testing.T) {
	t.Parallel()

	for _, v := range KaiserPeriodic(8, 0) {
		assert.InDelta(t, 1.0, v, 1e-12)
	}

	w := KaiserPeriodic(8, 6)
	assert.InDelta(t, 1.0, w[4], 1e-12)
	assert.Less(t, w[0], w[1])
	// periodic window is symmetric around n/2
	assert.InDelta(t, w[3], w[5], 1e-12)

	// both sides of the series / asymptotic switch agree
	assert.InDelta(t, besselI0e(29.999), besselI0e(30.001), 1e-5)
}

func TestHamming(t *testing.T) {
	t.Parallel()

	assert.InDeltaSlice(t, []float64{0.08, 0.54, 1, 0.54, 0.08}, Hamming(5), 1e-12)
	assert.Equal(t, []float64{1}, Hamming(1))
}

func TestConvolveSameDirectMatchesFFT(t *testing.T) {
	t.Parallel()

	a := noisy(600, 1)
	v := noisy(600, 2)

	viaFFT := ConvolveSame(a, v)
	full := directConvolve(a, v)
	start := (len(full) - len(a)) / 2
	for i := range viaFFT {
		assert.InDelta(t, full[start+i], viaFFT[i], 1e-8)
	}

	assert.Equal(t, []float64{1, 3, 5}, ConvolveSame([]float64{1, 2, 3}, []float64{1, 1}))
}

func TestInterp(t *testing.T) {
	t.Parallel()

	out := Interp([]float64{-1, 0, 0.5, 1, 2}, []float64{0, 1}, []float64{10, 20})
	assert.Equal(t, []float64{10, 10, 15, 20, 20}, out)
}

func TestLocalMaxima(t *testing.T) {
	t.Parallel()

	x := []float64{0, 1, 0, 2, 2, 2, 0, 3, 3, 1}
	assert.Equal(t, []int{1, 4, 7}, LocalMaxima(x))

	// edges are never peaks
	assert.Empty(t, LocalMaxima([]float64{3, 2, 1}))
}

func TestPeakProminenceAndWidth(t *testing.T) {
	t.Parallel()

	x := []float64{0, 0.5, 1, 0.5, 0}
	peaks, proms := FindPeaks(x, 0.75)
	require.Equal(t, []int{2}, peaks)
	assert.InDelta(t, 1.0, proms[0].Value, 1e-12)
	assert.Equal(t, 0, proms[0].LeftBase)
	assert.Equal(t, 4, proms[0].RightBase)

	// half height of a triangle spans two samples
	assert.InDelta(t, 2.0, PeakWidth(x, 2, proms[0], 0.5), 1e-12)
	assert.InDelta(t, 3.96, PeakWidth(x, 2, proms[0], 0.99), 1e-12)

	peaks, _ = FindPeaks([]float64{0, 0.5, 0.4, 0.5, 0}, 0.75)
	assert.Empty(t, peaks)
}

func TestMollifyPreservesLength(t *testing.T) {
	t.Parallel()

	n := 20
	times := make([]float64, n)
	pos := make([]float64, n)
	for i := range n {
		times[i] = float64(i) / float64(n-1)
		pos[i] = times[i] * times[i]
	}
	smooth := Mollify(times, pos, 5, 1)
	assert.Len(t, smooth, 5*n)
	for _, v := range smooth {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, -1e-9)
		assert.LessOrEqual(t, v, 1.0+1e-6)
	}
}
