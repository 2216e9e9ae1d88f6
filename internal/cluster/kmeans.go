package cluster

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	lloydMaxIter = 300
	spectralInit = 10
)

// optimalSplit finds the exact minimum within-cluster sum of squares
// partition of sorted values into a lower and an upper part and returns
// both centres.
func optimalSplit(sorted []float64) (lower, upper float64) {
	n := len(sorted)
	s1 := make([]float64, n+1)
	s2 := make([]float64, n+1)
	for i, v := range sorted {
		s1[i+1] = s1[i] + v
		s2[i+1] = s2[i] + v*v
	}

	best, bestCost := 1, math.Inf(1)
	for k := 1; k < n; k++ {
		left := s2[k] - s1[k]*s1[k]/float64(k)
		rs1 := s1[n] - s1[k]
		right := (s2[n] - s2[k]) - rs1*rs1/float64(n-k)
		if cost := left + right; cost < bestCost {
			best, bestCost = k, cost
		}
	}
	return s1[best] / float64(best), (s1[n] - s1[best]) / float64(n-best)
}

func sortedCopy(x []float64) []float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return sorted
}

// nearestOf labels every value with the closer of the two centres, ties
// going to the first.
func nearestOf(x []float64, lower, upper float64) []int {
	ids := make([]int, len(x))
	for i, v := range x {
		if math.Abs(v-upper) < math.Abs(v-lower) {
			ids[i] = 1
		}
	}
	return ids
}

// kmeans is the optimal two-means partition; the lower cluster is 0.
func kmeans(x []float64, _ uint64) ([]int, error) {
	lower, upper := optimalSplit(sortedCopy(x))
	return nearestOf(x, lower, upper), nil
}

// bic is the Bayesian information criterion of a spherical Gaussian model
// of the clusters around their centres.
func bic(clusters [][]float64, centers []float64) float64 {
	k := float64(len(clusters))
	var sigmaSq, total float64
	for c, members := range clusters {
		for _, v := range members {
			d := v - centers[c]
			sigmaSq += d * d
		}
		total += float64(len(members))
	}
	if total-k <= 0 {
		return math.Inf(1)
	}
	sigmaSq /= total - k

	const dim = 1.0
	params := (k - 1) + dim*k + 1
	sigmaTerm := math.Inf(-1)
	if sigmaSq > 0 {
		sigmaTerm = dim * 0.5 * math.Log(sigmaSq)
	}

	var score float64
	for _, members := range clusters {
		n := float64(len(members))
		l := n*math.Log(n) - n*math.Log(total) - n*0.5*math.Log(2*math.Pi) - n*sigmaTerm - (n-k)*0.5
		score += l - params*0.5*math.Log(total)
	}
	return score
}

// xmeans starts from a single cluster and splits it in two only when the
// split improves the information criterion.
func xmeans(x []float64, _ uint64) ([]int, error) {
	parent := bic([][]float64{x}, []float64{floats.Sum(x) / float64(len(x))})

	lower, upper := optimalSplit(sortedCopy(x))
	ids := nearestOf(x, lower, upper)
	children := make([][]float64, 2)
	for i, id := range ids {
		children[id] = append(children[id], x[i])
	}
	if len(children[0]) == 0 || len(children[1]) == 0 {
		return make([]int, len(x)), nil
	}

	if parent < bic(children, []float64{lower, upper}) {
		return ids, nil
	}
	return make([]int, len(x)), nil
}

func sqDist(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// kmeansPlusPlus seeds k centres: the first uniformly, the rest with
// probability proportional to the squared distance to the closest centre.
func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := [][]float64{append([]float64(nil), points[rng.IntN(len(points))]...)}
	closest := make([]float64, len(points))
	for i, p := range points {
		closest[i] = sqDist(p, centers[0])
	}
	for len(centers) < k {
		total := floats.Sum(closest)
		pick := 0
		if total > 0 {
			target := rng.Float64() * total
			var acc float64
			for i, d := range closest {
				acc += d
				if acc >= target {
					pick = i
					break
				}
			}
		} else {
			pick = rng.IntN(len(points))
		}
		c := append([]float64(nil), points[pick]...)
		centers = append(centers, c)
		for i, p := range points {
			closest[i] = math.Min(closest[i], sqDist(p, c))
		}
	}
	return centers
}

// lloyd runs Lloyd iterations from the given centres and returns labels
// and inertia.
func lloyd(points [][]float64, centers [][]float64) ([]int, float64) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	dim := len(points[0])

	var inertia float64
	for iter := 0; iter < lloydMaxIter; iter++ {
		changed := false
		inertia = 0
		for i, p := range points {
			best, bestD := 0, math.Inf(1)
			for c, center := range centers {
				if d := sqDist(p, center); d < bestD {
					best, bestD = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
			inertia += bestD
		}
		if !changed {
			break
		}

		sums := make([][]float64, len(centers))
		counts := make([]float64, len(centers))
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			floats.ScaleTo(centers[c], 1/counts[c], sums[c])
		}
	}
	return labels, inertia
}

// seededKMeans keeps the lowest inertia run out of restarts k-means++
// initialisations drawn from rng.
func seededKMeans(points [][]float64, k, restarts int, rng *rand.Rand) []int {
	var (
		best        []int
		bestInertia = math.Inf(1)
	)
	for range restarts {
		labels, inertia := lloyd(points, kmeansPlusPlus(points, k, rng))
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best
}

// lowerFirst relabels a two-way split so the cluster with the smaller mean
// of x is cluster 0.
func lowerFirst(x []float64, ids []int) []int {
	var sum [2]float64
	var count [2]float64
	for i, id := range ids {
		sum[id] += x[i]
		count[id]++
	}
	if count[0] == 0 || count[1] == 0 {
		return ids
	}
	if sum[0]/count[0] <= sum[1]/count[1] {
		return ids
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = 1 - id
	}
	return out
}
