package threshold

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/threshold/internal/dsp"
	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// evalAUCP cuts at the first grid point whose tail area under the
// normalised density falls below mean + |mean - median| of the total area.
func evalAUCP(x []float64, _ Options) ([]int, *float64, error) {
	curve, err := scoring.GenKDE(x, 0, 1, aucpGridFactor*len(x))
	if err != nil {
		return nil, nil, err
	}
	val, err := scoring.Normalize(curve.Density)
	if err != nil {
		return nil, nil, err
	}
	grid := curve.Grid

	total := scoring.Trapezoid(val, grid)
	mean := scoring.Mean(x)
	frac := mean + math.Abs(mean-scoring.Median(x))

	// tail[i] is the area from grid[i] to the end
	tail := make([]float64, len(grid))
	for i := len(grid) - 2; i >= 0; i-- {
		tail[i] = tail[i+1] + (grid[i+1]-grid[i])*(val[i]+val[i+1])/2
	}

	limit := defaultLimit
	for i, area := range tail {
		if area < frac*total {
			limit = grid[i]
			break
		}
	}
	return scoring.Cut(x, limit), limitOf(limit), nil
}

// ellipseBoundary is the cut point a(1-e) of an ellipse with eccentricity e
// and semi-major axis a = 1/(1+e).
func ellipseBoundary(e float64) float64 {
	return (1 - e) / (1 + e)
}

// evalEB searches the elliptical boundaries for the one whose inlier count
// is closest to the median count over random eccentricities. The scan is
// greedy: a later eccentricity only wins on a strict improvement.
func evalEB(x []float64, o Options) ([]int, *float64, error) {
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	inliers := func(limit float64) float64 {
		return float64(sort.Search(len(sorted), func(i int) bool { return sorted[i] > limit }))
	}

	rng := rand.New(rand.NewPCG(o.Seed, o.Seed))
	counts := make([]float64, ebTrials)
	for i := range counts {
		counts[i] = inliers(ellipseBoundary(rng.Float64()))
	}
	med := math.RoundToEven(scoring.Median(counts))

	limit := defaultLimit
	closest := 0.0
	for _, e := range scoring.Linspace(0, 1, ebTrials) {
		boundary := ellipseBoundary(e)
		count := inliers(boundary)
		if math.Abs(med-count) < math.Abs(med-closest) {
			closest = count
			limit = boundary
		}
	}
	return scoring.Cut(x, limit), limitOf(limit), nil
}

// evalFWFM cuts at the base width of the first prominent peak of the
// density over [-1, 1], relative to the curve length.
func evalFWFM(x []float64, _ Options) ([]int, *float64, error) {
	curve, err := scoring.GenKDE(x, -1, 1, fwfmGridFactor*len(x))
	if err != nil {
		return nil, nil, err
	}
	val, err := scoring.Normalize(curve.Density)
	if err != nil {
		return nil, nil, err
	}

	limit := rejectLimit
	peaks, proms := dsp.FindPeaks(val, fwfmProminence)
	if len(peaks) > 0 {
		width := dsp.PeakWidth(val, peaks[0], proms[0], fwfmRelHeight)
		limit = width / float64(len(val))
	}
	return scoring.Cut(x, limit), limitOf(limit), nil
}

// evalMoll smooths the sorted scores with a mollifier and cuts at one minus
// the peak of the smoothed curve.
func evalMoll(x []float64, _ Options) ([]int, *float64, error) {
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	times := scoring.Linspace(0, 1, len(x))
	smooth := dsp.Mollify(times, sorted, mollRefinement, mollWidth)

	limit := 1 - floats.Max(smooth)
	return scoring.Cut(x, limit), limitOf(limit), nil
}
