package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	meanShiftMaxIter          = 500
	meanShiftFallbackQuantile = 0.3
)

// estimateBandwidth is the mean distance from each point to its k-th
// nearest neighbour, itself counted, with k = n·quantile (at least 1).
func estimateBandwidth(sorted []float64, quantile float64) float64 {
	n := len(sorted)
	k := max(int(float64(n)*quantile), 1)

	var total float64
	for i := range sorted {
		// the k nearest values form a window of k sorted positions around i
		lo, hi := i, i
		for hi-lo+1 < k {
			switch {
			case lo == 0:
				hi++
			case hi == n-1:
				lo--
			case sorted[i]-sorted[lo-1] <= sorted[hi+1]-sorted[i]:
				lo--
			default:
				hi++
			}
		}
		total += math.Max(sorted[i]-sorted[lo], sorted[hi]-sorted[i])
	}
	return total / float64(n)
}

type modeSeed struct {
	center    float64
	intensity int
}

// meanShift runs flat-kernel mean shift from every point. The bandwidth
// comes from a data driven quantile: the L1 distance between x and its
// sorted copy relative to the sum of x.
func meanShift(x []float64, _ uint64) ([]int, error) {
	n := len(x)
	sorted := sortedCopy(x)

	var displaced float64
	for i, v := range x {
		displaced += math.Abs(v - sorted[i])
	}
	quantile := 1.0
	if sum := floats.Sum(x); sum > 0 {
		quantile = math.Min(displaced/sum, 1)
	}

	bw := 0.0
	if int(float64(n)*quantile) >= 1 {
		bw = estimateBandwidth(sorted, quantile)
	}
	if bw == 0 {
		bw = estimateBandwidth(sorted, meanShiftFallbackQuantile)
	}
	if bw == 0 {
		return nil, noClusters(MeanShift, n)
	}

	prefix := make([]float64, n+1)
	for i, v := range sorted {
		prefix[i+1] = prefix[i] + v
	}
	within := func(c float64) (int, int) {
		lo := sort.Search(n, func(k int) bool { return c-sorted[k] <= bw })
		hi := sort.Search(n, func(k int) bool { return sorted[k]-c > bw })
		return lo, hi
	}

	stop := 1e-3 * bw
	seeds := make([]modeSeed, 0, n)
	for _, start := range x {
		mean := start
		count := 0
		for iter := 0; ; iter++ {
			lo, hi := within(mean)
			if hi <= lo {
				break
			}
			old := mean
			mean = (prefix[hi] - prefix[lo]) / float64(hi-lo)
			count = hi - lo
			if math.Abs(mean-old) <= stop || iter+1 == meanShiftMaxIter {
				break
			}
		}
		if count > 0 {
			seeds = append(seeds, modeSeed{center: mean, intensity: count})
		}
	}

	sort.SliceStable(seeds, func(a, b int) bool {
		if seeds[a].intensity != seeds[b].intensity {
			return seeds[a].intensity > seeds[b].intensity
		}
		return seeds[a].center > seeds[b].center
	})

	var centers []float64
	removed := make([]bool, len(seeds))
	for i, s := range seeds {
		if removed[i] {
			continue
		}
		centers = append(centers, s.center)
		for j := i + 1; j < len(seeds); j++ {
			if math.Abs(seeds[j].center-s.center) <= bw {
				removed[j] = true
			}
		}
	}

	ids := make([]int, n)
	for i, v := range x {
		best, dist := 0, math.Inf(1)
		for c, center := range centers {
			if d := math.Abs(v - center); d < dist {
				best, dist = c, d
			}
		}
		ids[i] = best
	}
	return ids, nil
}
