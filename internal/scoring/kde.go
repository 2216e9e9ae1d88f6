package scoring

import (
	"math"
)

// DensityCurve is a density evaluated on an evenly spaced grid. It is not
// renormalised to unit area.
type DensityCurve struct {
	Density []float64
	Grid    []float64
}

// ScottBandwidth is Scott's rule of thumb: sample std times m^(-1/5).
func ScottBandwidth(x []float64) float64 {
	return SampleStd(x) * math.Pow(float64(len(x)), -0.2)
}

// GenKDE fits a Gaussian kernel density estimate to x and evaluates it at
// points evenly spaced over [lo, hi].
func GenKDE(x []float64, lo, hi float64, points int) (DensityCurve, error) {
	if err := Validate(x); err != nil {
		return DensityCurve{}, err
	}
	if points < 2 {
		return DensityCurve{}, validationErrorf("kde needs at least 2 grid points, got %d", points)
	}

	bw := ScottBandwidth(x)
	if bw == 0 || math.IsNaN(bw) {
		return DensityCurve{}, degenerateErrorf("kde bandwidth is zero")
	}

	grid := Linspace(lo, hi, points)
	density := make([]float64, points)
	norm := 1 / (float64(len(x)) * bw * math.Sqrt(2*math.Pi))

	for i, g := range grid {
		var sum float64
		for _, v := range x {
			z := (g - v) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		density[i] = sum * norm
	}

	return DensityCurve{Density: density, Grid: grid}, nil
}
