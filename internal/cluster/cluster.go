// Package cluster splits one-dimensional scores into an inlier and an
// outlier group with one of several clustering backends.
//
// Every backend returns cluster ids per point: 0 for its first cluster,
// larger ids for further clusters and Noise for points left unassigned.
// Partition turns those ids into outlier labels.
package cluster

import (
	"fmt"
	"math"
	"strings"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// Noise marks a point no cluster claimed.
const Noise = -1

// Kind names a clustering backend.
type Kind string

const (
	Agglomerative Kind = "agg"
	Birch         Kind = "birch"
	Bang          Kind = "bang"
	BayesianGMM   Kind = "bgm"
	BSAS          Kind = "bsas"
	DBSCAN        Kind = "dbscan"
	EMA           Kind = "ema"
	KMeans        Kind = "kmeans"
	MBSAS         Kind = "mbsas"
	MeanShift     Kind = "mshift"
	Optics        Kind = "optics"
	SOMSC         Kind = "somsc"
	Spectral      Kind = "spec"
	XMeans        Kind = "xmeans"
)

// DefaultKind is the backend used when none is configured.
const DefaultKind = Spectral

type backend func(x []float64, seed uint64) ([]int, error)

var backends = map[Kind]backend{
	Agglomerative: agglomerative,
	Birch:         birch,
	Bang:          bang,
	BayesianGMM:   bayesianMixture,
	BSAS:          bsas,
	DBSCAN:        dbscan,
	EMA:           emMixture,
	KMeans:        kmeans,
	MBSAS:         mbsas,
	MeanShift:     meanShift,
	Optics:        optics,
	SOMSC:         somsc,
	Spectral:      spectral,
	XMeans:        xmeans,
}

// Kinds lists every registered backend in a stable order.
func Kinds() []Kind {
	return []Kind{
		Agglomerative, Birch, Bang, BayesianGMM, BSAS, DBSCAN, EMA,
		KMeans, MBSAS, MeanShift, Optics, SOMSC, Spectral, XMeans,
	}
}

// ParseKind resolves a backend name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := backends[k]; !ok {
		return "", fmt.Errorf("%w: unknown cluster backend %q", scoring.ErrValidation, name)
	}
	return k, nil
}

// Assign runs a backend and returns the raw cluster ids.
func Assign(kind Kind, x []float64, seed uint64) ([]int, error) {
	fit, ok := backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown cluster backend %q", scoring.ErrValidation, kind)
	}
	return fit(x, seed)
}

// Partition clusters x, expected in [0, 1], and returns outlier labels.
// The first cluster becomes the inliers and everything else, noise
// included, the outliers; when that makes outliers the majority the labels
// are flipped. Mean shift instead marks its most populated cluster as
// inliers.
func Partition(kind Kind, x []float64, seed uint64) ([]int, error) {
	ids, err := Assign(kind, x, seed)
	if err != nil {
		return nil, err
	}
	if kind == MeanShift {
		return modeInliers(ids), nil
	}
	return orient(ids), nil
}

func orient(ids []int) []int {
	labels := make([]int, len(ids))
	sum := 0
	for i, id := range ids {
		if id != 0 {
			labels[i] = 1
			sum++
		}
	}
	if float64(sum) > math.Ceil(float64(len(ids))/2) {
		for i := range labels {
			labels[i] = 1 - labels[i]
		}
	}
	return labels
}

func modeInliers(ids []int) []int {
	counts := map[int]int{}
	mode, best := 0, -1
	for _, id := range ids {
		counts[id]++
	}
	for id, c := range counts {
		if c > best || (c == best && id < mode) {
			mode, best = id, c
		}
	}
	labels := make([]int, len(ids))
	for i, id := range ids {
		if id != mode {
			labels[i] = 1
		}
	}
	return labels
}

// clustersToIDs converts member lists, in cluster order, to per-point ids.
func clustersToIDs(n int, clusters [][]int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = Noise
	}
	for c, members := range clusters {
		for _, idx := range members {
			ids[idx] = c
		}
	}
	return ids
}

func noClusters(kind Kind, n int) error {
	return scoring.NewAlgorithmError(string(kind), n, "no cluster formed")
}
