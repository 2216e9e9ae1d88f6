package scoring

import (
	"gonum.org/v1/gonum/floats"
)

// Normalize rescales scores into [0, 1] so the minimum maps to 0 and the
// maximum to 1. It fails with ErrDegenerateInput on zero range instead of
// producing NaNs.
func Normalize(scores []float64) ([]float64, error) {
	if err := Validate(scores); err != nil {
		return nil, err
	}

	lo := floats.Min(scores)
	hi := floats.Max(scores)
	if hi == lo {
		return nil, degenerateErrorf("all %d scores equal %v", len(scores), lo)
	}

	result := make([]float64, len(scores))
	copy(result, scores)
	floats.AddConst(-lo, result)
	floats.Scale(1.0/(hi-lo), result)

	// pin the extremes, rounding can leave max at 1-ulp
	for i, s := range scores {
		switch s {
		case lo:
			result[i] = 0
		case hi:
			result[i] = 1
		}
	}

	return result, nil
}

// L1Normalize scales a non-negative vector to unit sum. Vectors with a
// non-positive sum are returned unchanged.
func L1Normalize(arr []float64) []float64 {
	result := make([]float64, len(arr))
	copy(result, arr)

	sum := floats.Sum(result)
	if sum > 0 {
		floats.Scale(1.0/sum, result)
	}

	return result
}
