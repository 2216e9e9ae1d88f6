package cluster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	spectralGamma      = 1.0
	spectralComponents = 2
)

// spectral embeds the points with the leading eigenvectors of the
// normalised RBF affinity and splits the embedding with seeded k-means.
// The cluster with the lower mean score is cluster 0.
func spectral(x []float64, seed uint64) ([]int, error) {
	n := len(x)

	degree := make([]float64, n)
	affinity := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := x[i] - x[j]
			a := math.Exp(-spectralGamma * d * d)
			affinity.SetSym(i, j, a)
			degree[i] += a
			degree[j] += a
		}
	}

	sqrtDeg := make([]float64, n)
	for i, d := range degree {
		if d == 0 {
			return nil, noClusters(Spectral, n)
		}
		sqrtDeg[i] = math.Sqrt(d)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			affinity.SetSym(i, j, affinity.At(i, j)/(sqrtDeg[i]*sqrtDeg[j]))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(affinity, true); !ok {
		return nil, noClusters(Spectral, n)
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// eigenvalues come back ascending, the embedding uses the largest
	components := min(spectralComponents, n)
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, components)
	}
	for c := range components {
		col := n - 1 - c
		v := mat.Col(nil, col, &vectors)
		signFlip(v)
		for i := range n {
			points[i][c] = v[i] / sqrtDeg[i]
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	ids := seededKMeans(points, 2, spectralInit, rng)
	return lowerFirst(x, ids), nil
}

// signFlip makes the largest magnitude entry positive.
func signFlip(v []float64) {
	idx, best := 0, -1.0
	for i, e := range v {
		if a := math.Abs(e); a > best {
			idx, best = i, a
		}
	}
	if v[idx] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}
