package scoring

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MinMaxScale is the lenient variant of Normalize: a zero-range input maps
// to all zeros instead of an error.
func MinMaxScale(scores []float64) []float64 {
	result := make([]float64, len(scores))
	copy(result, scores)

	min := floats.Min(result)
	max := floats.Max(result)

	if max != min {
		floats.AddConst(-min, result)
		floats.Scale(1.0/(max-min), result)
	} else {
		floats.Scale(0, result)
	}

	return result
}

// MinMaxScaleColumns scales every detector column of an (n, d) matrix into
// [0, 1] independently.
func MinMaxScaleColumns(scores mat.Matrix) *mat.Dense {
	rows, cols := scores.Dims()

	scaled := mat.NewDense(rows, cols, nil)

	for colIdx := range cols {
		column := mat.Col(nil, colIdx, scores)
		scaled.SetCol(colIdx, MinMaxScale(column))
	}

	return scaled
}
