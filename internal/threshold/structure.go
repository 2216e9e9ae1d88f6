package threshold

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/dsp"
	"github.com/tensorplex-labs/threshold/internal/meta"
	"github.com/tensorplex-labs/threshold/internal/scoring"
)

func evalClust(x []float64, o Options) ([]int, *float64, error) {
	labels, err := cluster.Partition(o.Cluster, x, o.Seed)
	if err != nil {
		return nil, nil, err
	}
	return labels, nil, nil
}

func evalMeta(x []float64, o Options) ([]int, *float64, error) {
	labels, err := meta.Vote(o.Predictor, x, o.MetaGroups)
	if err != nil {
		return nil, nil, err
	}
	return labels, nil, nil
}

// evalFilter transforms the scores with the configured filter and cuts the
// scores at the maximum of the filtered curve. Resampling and decimation
// change the curve length but never the label count.
func evalFilter(x []float64, o Options) ([]int, *float64, error) {
	auto := o.Sigma == 0
	sigma := o.Sigma
	if auto {
		sigma = float64(len(x)) * scoring.Std(x)
	}

	curve, err := applyFilter(o.Filter, x, sigma, auto)
	if err != nil {
		if errors.Is(err, dsp.ErrInvalidParameter) {
			return nil, nil, scoring.NewAlgorithmError(string(o.Filter), len(x), err.Error())
		}
		return nil, nil, err
	}

	limit := floats.Max(curve)
	return scoring.Cut(x, limit), limitOf(limit), nil
}

func applyFilter(kind FilterKind, x []float64, sigma float64, auto bool) ([]float64, error) {
	n := len(x)
	switch kind {
	case FilterGaussian:
		return dsp.GaussianFilter(x, sigma)

	case FilterSavgol:
		if auto {
			sigma = math.RoundToEven(0.5 * sigma)
		}
		return dsp.SavgolFilter(x, savgolWindow(scoring.Round(sigma), n))

	case FilterHilbert:
		analytic, err := dsp.Hilbert(x, scoring.Round(sigma))
		if err != nil {
			return nil, err
		}
		curve := make([]float64, len(analytic))
		for i, v := range analytic {
			curve[i] = real(v)
		}
		return curve, nil

	case FilterWiener:
		return dsp.WienerFilter(x, n)

	case FilterMedian:
		return dsp.MedianFilter(x, oddUp(scoring.Round(sigma)))

	case FilterDecimate:
		return dsp.Decimate(x, scoring.Round(sigma))

	case FilterDetrend:
		bp := dsp.LinspaceInt(0, float64(n-1), scoring.Round(sigma))
		return dsp.Detrend(x, bp), nil

	case FilterResample:
		beta := sigma
		if auto {
			beta = math.Sqrt(sigma)
		}
		num := scoring.Round(math.Sqrt(float64(n)))
		return dsp.Resample(x, num, float64(scoring.Round(beta)))

	default:
		return nil, fmt.Errorf("%w: unknown filter %q", scoring.ErrValidation, kind)
	}
}

func oddUp(w int) int {
	if w%2 == 0 {
		return w + 1
	}
	return w
}

// savgolWindow makes w odd and fits it into [3, n], the range a first
// order fit is defined on.
func savgolWindow(w, n int) int {
	w = max(oddUp(w), 3)
	if w > n {
		w = n
		if w%2 == 0 {
			w--
		}
	}
	return w
}
