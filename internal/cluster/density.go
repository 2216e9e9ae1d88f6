package cluster

import (
	"math"
	"slices"
	"sort"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// optics looks for exactly this many clusters.
const opticsTargetClusters = 1

// radiusIndex answers fixed-radius neighbour queries on 1-D data.
type radiusIndex struct {
	x      []float64
	order  []int
	sorted []float64
}

func newRadiusIndex(x []float64) *radiusIndex {
	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })
	sorted := make([]float64, len(x))
	for i, idx := range order {
		sorted[i] = x[idx]
	}
	return &radiusIndex{x: x, order: order, sorted: sorted}
}

// span returns the sorted positions [lo, hi) within eps of x[i], self
// included.
func (r *radiusIndex) span(i int, eps float64) (int, int) {
	v := r.x[i]
	lo := sort.Search(len(r.sorted), func(k int) bool { return v-r.sorted[k] <= eps })
	hi := sort.Search(len(r.sorted), func(k int) bool { return r.sorted[k]-v > eps })
	return lo, hi
}

// neighbours returns the points within eps of x[i], excluding i.
func (r *radiusIndex) neighbours(i int, eps float64) []int {
	lo, hi := r.span(i, eps)
	out := make([]int, 0, hi-lo)
	for k := lo; k < hi; k++ {
		if idx := r.order[k]; idx != i {
			out = append(out, idx)
		}
	}
	return out
}

// dbscan grows clusters from core points with at least n/2 neighbours
// within std/√2. Clusters are numbered in discovery order.
func dbscan(x []float64, _ uint64) ([]int, error) {
	n := len(x)
	eps := scoring.Std(x) / math.Sqrt2
	minPts := n / 2
	index := newRadiusIndex(x)

	visited := make([]bool, n)
	belong := make([]bool, n)
	var clusters [][]int

	for i := range n {
		if visited[i] {
			continue
		}
		visited[i] = true
		seeds := index.neighbours(i, eps)
		if len(seeds) < minPts {
			continue
		}

		cluster := []int{i}
		belong[i] = true
		queued := make([]bool, n)
		queued[i] = true
		for _, s := range seeds {
			queued[s] = true
		}

		for q := 0; q < len(seeds); q++ {
			k := seeds[q]
			if !visited[k] {
				visited[k] = true
				next := index.neighbours(k, eps)
				if len(next) >= minPts {
					for _, m := range next {
						if !queued[m] {
							queued[m] = true
							seeds = append(seeds, m)
						}
					}
				}
			}
			if !belong[k] {
				cluster = append(cluster, k)
				belong[k] = true
			}
		}
		clusters = append(clusters, cluster)
	}

	if len(clusters) == 0 {
		return nil, noClusters(DBSCAN, n)
	}
	return clustersToIDs(n, clusters), nil
}

type opticsPoint struct {
	processed bool
	reach     float64 // NaN when undefined
	core      float64 // NaN when not a core point
}

// opticsRun orders the points by reachability and extracts clusters at
// radius eps.
type opticsRun struct {
	x        []float64
	index    *radiusIndex
	eps      float64
	minPts   int
	points   []opticsPoint
	ordered  []int
	clusters [][]int
}

func (o *opticsRun) neighbourDistances(i int) ([]int, []float64) {
	nb := o.index.neighbours(i, o.eps)
	dist := make([]float64, len(nb))
	for k, j := range nb {
		dist[k] = math.Abs(o.x[i] - o.x[j])
	}
	return nb, dist
}

func coreDistance(dist []float64, minPts int) float64 {
	sorted := slices.Clone(dist)
	slices.Sort(sorted)
	return sorted[minPts-1]
}

func (o *opticsRun) updateSeeds(p int, nb []int, dist []float64, seeds []int) []int {
	core := o.points[p].core
	for k, j := range nb {
		if o.points[j].processed {
			continue
		}
		reach := math.Max(dist[k], core)
		switch {
		case math.IsNaN(o.points[j].reach):
			o.points[j].reach = reach
			seeds = append(seeds, j)
		case reach < o.points[j].reach:
			o.points[j].reach = reach
		}
	}
	slices.SortStableFunc(seeds, func(a, b int) int {
		switch {
		case o.points[a].reach < o.points[b].reach:
			return -1
		case o.points[a].reach > o.points[b].reach:
			return 1
		}
		return 0
	})
	return seeds
}

func (o *opticsRun) expand(p int) {
	o.points[p].processed = true
	nb, dist := o.neighbourDistances(p)
	o.points[p].reach = math.NaN()
	o.ordered = append(o.ordered, p)
	if len(nb) < o.minPts {
		o.points[p].core = math.NaN()
		return
	}

	o.points[p].core = coreDistance(dist, o.minPts)
	seeds := o.updateSeeds(p, nb, dist, nil)
	for len(seeds) > 0 {
		next := seeds[0]
		seeds = seeds[1:]
		nextNb, nextDist := o.neighbourDistances(next)
		o.points[next].processed = true
		o.ordered = append(o.ordered, next)
		if len(nextNb) >= o.minPts {
			o.points[next].core = coreDistance(nextDist, o.minPts)
			seeds = o.updateSeeds(next, nextNb, nextDist, seeds)
		} else {
			o.points[next].core = math.NaN()
		}
	}
}

func (o *opticsRun) allocate() {
	o.points = make([]opticsPoint, len(o.x))
	for i := range o.points {
		o.points[i] = opticsPoint{reach: math.NaN(), core: math.NaN()}
	}
	o.ordered = o.ordered[:0]
	for i := range o.x {
		if !o.points[i].processed {
			o.expand(i)
		}
	}

	o.clusters = nil
	current := -1
	for _, p := range o.ordered {
		pt := o.points[p]
		if math.IsNaN(pt.reach) || pt.reach > o.eps {
			if !math.IsNaN(pt.core) && pt.core <= o.eps {
				o.clusters = append(o.clusters, []int{p})
				current = len(o.clusters) - 1
			} else {
				current = -1
			}
			continue
		}
		if current >= 0 {
			o.clusters[current] = append(o.clusters[current], p)
		}
	}
}

// reachOrdering lists the defined reachability distances of clustered
// points, cluster by cluster.
func (o *opticsRun) reachOrdering() []float64 {
	var ordering []float64
	for _, c := range o.clusters {
		for _, p := range c {
			if r := o.points[p].reach; !math.IsNaN(r) {
				ordering = append(ordering, r)
			}
		}
	}
	return ordering
}

// clusterAmount counts the runs of reachability at or above radius.
func clusterAmount(ordering []float64, radius float64) int {
	amount := 1
	inRun := false
	allEqual := true
	for i, d := range ordering {
		if d >= radius {
			if !inRun {
				inRun = true
				amount++
			}
		} else {
			inRun = false
		}
		if i > 0 && d != ordering[i-1] {
			allEqual = false
		}
	}
	if allEqual && len(ordering) > 0 && ordering[len(ordering)-1] > radius {
		return 0
	}
	return amount - 1
}

// connectivityRadius bisects for the radius that yields amount clusters.
func connectivityRadius(ordering []float64, amount int) (float64, bool) {
	if len(ordering) == 0 {
		return 0, false
	}
	upper := slices.Max(ordering)
	lower := 0.0
	if clusterAmount(ordering, upper) > amount {
		return 0, false
	}
	for range 100 {
		radius := (lower + upper) / 2
		switch c := clusterAmount(ordering, radius); {
		case c == amount:
			return radius, true
		case c == 0:
			return 0, false
		case c < amount:
			lower = radius
		default:
			upper = radius
		}
	}
	return 0, false
}

// optics orders the points by reachability with eps = std/√2 and
// minPts = n/2, then tunes the extraction radius to obtain one cluster.
func optics(x []float64, _ uint64) ([]int, error) {
	n := len(x)
	run := &opticsRun{
		x:      x,
		index:  newRadiusIndex(x),
		eps:    scoring.Std(x) / math.Sqrt2,
		minPts: max(n/2, 1),
	}
	run.allocate()

	if len(run.clusters) != opticsTargetClusters {
		if radius, ok := connectivityRadius(run.reachOrdering(), opticsTargetClusters); ok {
			run.eps = radius
			run.allocate()
		}
	}

	if len(run.clusters) == 0 {
		return nil, noClusters(Optics, n)
	}
	return clustersToIDs(n, run.clusters), nil
}
