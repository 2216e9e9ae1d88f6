package scoring

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	decomposeMaxIter = 200
	decomposeTol     = 1e-12
)

// Decompose reduces an (n, d) matrix of detector scores to a single score
// vector. Columns are min-max scaled, then projected onto their first right
// singular vector. The seed only drives the power iteration used when the
// SVD fails to converge. A single column is passed through untouched.
func Decompose(scores mat.Matrix, seed uint64) ([]float64, error) {
	if err := ValidateMatrix(scores); err != nil {
		return nil, err
	}

	rows, cols := scores.Dims()
	if cols == 1 {
		return mat.Col(nil, 0, scores), nil
	}

	scaled := MinMaxScaleColumns(scores)
	v, ok := firstSingularVector(scaled)
	if !ok {
		v = powerIterate(scaled, seed)
	}
	if v == nil {
		return make([]float64, rows), nil
	}

	// fix the sign so the reduced score grows with the detectors
	if floats.Sum(v.RawVector().Data) < 0 {
		v.ScaleVec(-1, v)
	}

	var projected mat.VecDense
	projected.MulVec(scaled, v)
	return projected.RawVector().Data, nil
}

// firstSingularVector returns the right singular vector of the largest
// singular value of m.
func firstSingularVector(m *mat.Dense) (*mat.VecDense, bool) {
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDThinV) {
		return nil, false
	}
	var right mat.Dense
	svd.VTo(&right)
	return mat.VecDenseCopyOf(right.ColView(0)), true
}

// powerIterate approximates the first right singular vector of m from a
// seeded start. It returns nil when m is all zeros.
func powerIterate(m *mat.Dense, seed uint64) *mat.VecDense {
	_, cols := m.Dims()

	var gram mat.SymDense
	gram.SymOuterK(1, m.T())

	rng := rand.New(rand.NewPCG(seed, seed))
	v := mat.NewVecDense(cols, nil)
	for i := range cols {
		v.SetVec(i, rng.Float64()+0.5)
	}

	next := mat.NewVecDense(cols, nil)
	for range decomposeMaxIter {
		next.MulVec(&gram, v)
		norm := mat.Norm(next, 2)
		if norm == 0 {
			return nil
		}
		next.ScaleVec(1/norm, next)

		diff := 0.0
		for i := range cols {
			diff = math.Max(diff, math.Abs(next.AtVec(i)-v.AtVec(i)))
		}
		v.CopyVec(next)
		if diff < decomposeTol {
			break
		}
	}
	return v
}
