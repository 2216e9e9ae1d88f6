package scoring

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean is the arithmetic mean.
func Mean(x []float64) float64 {
	return stat.Mean(x, nil)
}

// Std is the population standard deviation (ddof 0).
func Std(x []float64) float64 {
	return stat.PopStdDev(x, nil)
}

// SampleStd is the sample standard deviation (ddof 1).
func SampleStd(x []float64) float64 {
	return stat.StdDev(x, nil)
}

// GeometricMean returns 0 when any value is zero.
func GeometricMean(x []float64) float64 {
	return stat.GeometricMean(x, nil)
}

// Median averages the two middle values for even lengths.
func Median(x []float64) float64 {
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	return medianSorted(sorted)
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MedianAbsDev is the unscaled median absolute deviation around the median.
func MedianAbsDev(x []float64) float64 {
	med := Median(x)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - med)
	}
	return Median(dev)
}

// Linspace returns n evenly spaced points over [lo, hi], both ends included.
func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[n-1] = hi
	return out
}

// Trapezoid integrates y over the sample points x with the trapezoidal rule.
func Trapezoid(y, x []float64) float64 {
	var area float64
	for i := 1; i < len(y); i++ {
		area += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return area
}

// Round rounds half to even.
func Round(x float64) int {
	return int(math.RoundToEven(x))
}
