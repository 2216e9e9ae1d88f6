package cluster

import (
	"math"
	"sort"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

type group struct {
	members []int
	sum     float64
	weight  float64
}

func (g group) centroid() float64 { return g.sum / g.weight }

// sortedGroups makes one singleton group per value, in ascending order.
func sortedGroups(values []float64) []group {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	groups := make([]group, len(values))
	for i, idx := range order {
		groups[i] = group{members: []int{idx}, sum: values[idx], weight: 1}
	}
	return groups
}

// mergeAdjacent merges neighbouring groups, cheapest first by cost, until
// k remain. In one dimension centroid and Ward linkage only ever join
// neighbours.
func mergeAdjacent(groups []group, k int, cost func(a, b group) float64) []group {
	for len(groups) > k {
		best, bestCost := 0, math.Inf(1)
		for i := 0; i+1 < len(groups); i++ {
			if c := cost(groups[i], groups[i+1]); c < bestCost {
				best, bestCost = i, c
			}
		}
		merged := group{
			members: append(groups[best].members, groups[best+1].members...),
			sum:     groups[best].sum + groups[best+1].sum,
			weight:  groups[best].weight + groups[best+1].weight,
		}
		groups[best] = merged
		groups = append(groups[:best+1], groups[best+2:]...)
	}
	return groups
}

func centroidLink(a, b group) float64 {
	return math.Abs(a.centroid() - b.centroid())
}

func wardLink(a, b group) float64 {
	d := a.centroid() - b.centroid()
	return a.weight * b.weight / (a.weight + b.weight) * d * d
}

// agglomerative merges points by centroid linkage down to two clusters.
// The cluster holding the first input point is cluster 0.
func agglomerative(x []float64, _ uint64) ([]int, error) {
	groups := mergeAdjacent(sortedGroups(x), 2, centroidLink)

	ids := make([]int, len(x))
	first := 0
	for c, g := range groups {
		for _, idx := range g.members {
			if idx == 0 {
				first = c
			}
		}
	}
	for c, g := range groups {
		id := 1
		if c == first {
			id = 0
		}
		for _, idx := range g.members {
			ids[idx] = id
		}
	}
	return ids, nil
}

type clusteringFeature struct {
	n, ls, ss float64
}

func (cf clusteringFeature) centroid() float64 { return cf.ls / cf.n }

// birch summarises the points into clustering features of radius at most
// std/√2, joins the feature centroids into two groups by Ward linkage and
// labels every point by its nearest feature. The lower group is cluster 0.
func birch(x []float64, _ uint64) ([]int, error) {
	threshold := scoring.Std(x) / math.Sqrt2

	var features []clusteringFeature
	for _, v := range x {
		nearest, dist := -1, math.Inf(1)
		for i, cf := range features {
			if d := math.Abs(cf.centroid() - v); d < dist {
				nearest, dist = i, d
			}
		}
		if nearest >= 0 {
			cf := features[nearest]
			merged := clusteringFeature{n: cf.n + 1, ls: cf.ls + v, ss: cf.ss + v*v}
			c := merged.centroid()
			if merged.ss/merged.n-c*c <= threshold*threshold {
				features[nearest] = merged
				continue
			}
		}
		features = append(features, clusteringFeature{n: 1, ls: v, ss: v * v})
	}

	centroids := make([]float64, len(features))
	for i, cf := range features {
		centroids[i] = cf.centroid()
	}

	featureGroup := make([]int, len(features))
	if len(features) >= 2 {
		groups := mergeAdjacent(sortedGroups(centroids), 2, wardLink)
		for c, g := range groups {
			for _, idx := range g.members {
				featureGroup[idx] = c
			}
		}
	}

	ids := make([]int, len(x))
	for i, v := range x {
		nearest, dist := 0, math.Inf(1)
		for f, c := range centroids {
			if d := math.Abs(c - v); d < dist {
				nearest, dist = f, d
			}
		}
		ids[i] = featureGroup[nearest]
	}
	return ids, nil
}
