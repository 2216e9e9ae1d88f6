package threshold

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// minRejectionSize is the smallest sample the t based tests are defined
// for; they need n-2 > 0 degrees of freedom.
const minRejectionSize = 3

func centerOf(c Center, x []float64) float64 {
	switch c {
	case CenterMedian:
		return scoring.Median(x)
	case CenterGMean:
		return scoring.GeometricMean(x)
	default:
		return scoring.Mean(x)
	}
}

// evalChau applies Chauvenet's criterion. The labels come from cutting the
// deviation probabilities, not the scores, at the criterion; the reported
// threshold is the criterion scaled by (1 - min p) / max p.
func evalChau(x []float64, o Options) ([]int, *float64, error) {
	n := float64(len(x))
	criterion := 1 / math.Abs(distuv.UnitNormal.Quantile(1/(4*n)))

	center := centerOf(o.Center, x)
	std := scoring.Std(x)
	prob := make([]float64, len(x))
	for i, v := range x {
		prob[i] = math.Erfc(math.Abs(v-center) / std)
	}

	limit := criterion * (1 - floats.Min(prob)) / floats.Max(prob)
	return scoring.Cut(prob, criterion), limitOf(limit), nil
}

// flagRejected labels the rejected positions that lie at or above limit.
// Scores tied with the limit but never rejected stay inliers, so the count
// is bounded by the number of rounds.
func flagRejected(x []float64, rejected []int, limit float64) []int {
	labels := make([]int, len(x))
	for _, i := range rejected {
		if x[i] >= limit {
			labels[i] = 1
		}
	}
	return labels
}

// grubbs returns the largest absolute deviation from the mean in units of
// the standard deviation, and where it occurs.
func grubbs(y []float64) (float64, int) {
	mean := scoring.Mean(y)
	idx, dev := 0, -1.0
	for i, v := range y {
		if d := math.Abs(v - mean); d > dev {
			idx, dev = i, d
		}
	}
	return dev / scoring.Std(y), idx
}

// grubbsCritical is the two-sided Grubbs critical value for size samples.
func grubbsCritical(size int, alpha float64) float64 {
	n := float64(size)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}.Quantile(1 - alpha/(2*n))
	return (n - 1) * math.Abs(t) / (math.Sqrt(n) * math.Sqrt(n-2+t*t))
}

// evalGESD runs the generalized ESD test for up to GESDMaxOutliers
// candidates, removing the most extreme score each round. Only candidates
// above the mean of the remaining scores can lower the limit.
func evalGESD(x []float64, o Options) ([]int, *float64, error) {
	rounds := o.GESDMaxOutliers
	if rounds == 0 {
		rounds = len(x) / 2
	}

	arr := slices.Clone(x)
	pos := make([]int, len(x))
	for i := range pos {
		pos[i] = i
	}

	limit := rejectLimit
	rejected := make([]int, 0, rounds)
	for range rounds {
		if len(arr) < minRejectionSize {
			break
		}
		crit := grubbsCritical(len(arr), o.GESDAlpha)
		stat, idx := grubbs(arr)
		if stat > crit && arr[idx] < limit && arr[idx] > scoring.Mean(arr) {
			limit = arr[idx]
		}
		rejected = append(rejected, pos[idx])
		arr = slices.Delete(arr, idx, idx+1)
		pos = slices.Delete(pos, idx, idx+1)
	}
	return flagRejected(x, rejected, limit), limitOf(limit), nil
}

// tauCritical is the modified Thompson tau for size samples at confidence
// alpha.
func tauCritical(size int, alpha float64) float64 {
	n := float64(size)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}.Quantile(alpha)
	return t * (n - 1) / (math.Sqrt(n) * math.Sqrt(n-2+t*t))
}

// evalMTT rejects the largest remaining score while its deviation exceeds
// the tau critical value, optionally stopping after MTTMaxOutliers.
func evalMTT(x []float64, o Options) ([]int, *float64, error) {
	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(x[a], x[b]) })
	arr := make([]float64, len(x))
	for i, j := range order {
		arr[i] = x[j]
	}

	limit := rejectLimit
	var rejected []int
	for len(arr) >= minRejectionSize {
		if o.MTTMaxOutliers > 0 && len(rejected) == o.MTTMaxOutliers {
			break
		}
		last := len(arr) - 1
		delta := math.Abs(arr[last]-scoring.Mean(arr)) / scoring.Std(arr)
		if !(delta > tauCritical(len(arr), o.MTTAlpha)) {
			break
		}
		limit = arr[last]
		rejected = append(rejected, order[last])
		arr = arr[:last]
	}
	return flagRejected(x, rejected, limit), limitOf(limit), nil
}

// evalMAD cuts at the mean plus the median absolute deviation scaled by
// the standard deviation.
func evalMAD(x []float64, _ Options) ([]int, *float64, error) {
	limit := scoring.Mean(x) + scoring.MedianAbsDev(x)/scoring.Std(x)
	return scoring.Cut(x, limit), limitOf(limit), nil
}
