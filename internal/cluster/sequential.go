package cluster

import (
	"math"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

const sequentialMaxClusters = 2

// sequentialScheme holds the running state of the basic sequential
// algorithmic schemes: clusters in creation order and their mean
// representatives.
type sequentialScheme struct {
	clusters [][]int
	reps     []float64
}

func (s *sequentialScheme) nearest(v float64) (int, float64) {
	best, dist := 0, math.Inf(1)
	for i, r := range s.reps {
		if d := math.Abs(v - r); d < dist {
			best, dist = i, d
		}
	}
	return best, dist
}

func (s *sequentialScheme) open(idx int, v float64) {
	s.clusters = append(s.clusters, []int{idx})
	s.reps = append(s.reps, v)
}

func (s *sequentialScheme) add(c, idx int, v float64) {
	s.clusters[c] = append(s.clusters[c], idx)
	length := float64(len(s.clusters[c]))
	s.reps[c] = ((length-1)*s.reps[c] + v) / length
}

// bsas opens a new cluster whenever a point is further than one standard
// deviation from every representative, up to two clusters; otherwise the
// point joins its nearest cluster immediately.
func bsas(x []float64, _ uint64) ([]int, error) {
	threshold := scoring.Std(x)
	s := &sequentialScheme{}
	s.open(0, x[0])
	for i := 1; i < len(x); i++ {
		c, d := s.nearest(x[i])
		if d > threshold && len(s.clusters) < sequentialMaxClusters {
			s.open(i, x[i])
			continue
		}
		s.add(c, i, x[i])
	}
	return clustersToIDs(len(x), s.clusters), nil
}

// mbsas decides the clusters in a first pass and assigns the remaining
// points in a second one.
func mbsas(x []float64, _ uint64) ([]int, error) {
	threshold := scoring.Std(x)
	s := &sequentialScheme{}
	s.open(0, x[0])

	var skipped []int
	for i := 1; i < len(x); i++ {
		_, d := s.nearest(x[i])
		if d > threshold && len(s.clusters) < sequentialMaxClusters {
			s.open(i, x[i])
			continue
		}
		skipped = append(skipped, i)
	}
	for _, i := range skipped {
		c, _ := s.nearest(x[i])
		s.add(c, i, x[i])
	}
	return clustersToIDs(len(x), s.clusters), nil
}
