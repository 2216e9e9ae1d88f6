package scoring

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinScores is the smallest score array any procedure accepts.
const MinScores = 2

// Validate runs the shared precondition check on a 1-D score array.
func Validate(scores []float64) error {
	if len(scores) < MinScores {
		return validationErrorf("need at least %d scores, got %d", MinScores, len(scores))
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return validationErrorf("score %d is not finite (%v)", i, s)
		}
	}
	return nil
}

// ValidateMatrix checks an (n, d) score matrix from d detectors.
func ValidateMatrix(scores mat.Matrix) error {
	if scores == nil {
		return validationErrorf("nil score matrix")
	}
	rows, cols := scores.Dims()
	if cols < 1 {
		return validationErrorf("score matrix has no detector columns")
	}
	if rows < MinScores {
		return validationErrorf("need at least %d rows, got %d", MinScores, rows)
	}
	for i := range rows {
		for j := range cols {
			v := scores.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return validationErrorf("score (%d, %d) is not finite (%v)", i, j, v)
			}
		}
	}
	return nil
}

// FromRows builds a dense (n, d) matrix from per-sample rows, rejecting
// ragged input.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, validationErrorf("empty score matrix")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, validationErrorf("score matrix has no detector columns")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, validationErrorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
