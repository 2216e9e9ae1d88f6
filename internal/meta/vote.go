// Package meta thresholds scores by majority vote over the per-group
// predictions of a pretrained classifier.
package meta

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// DefaultGroups is the number of training groups the pretrained models
// were fitted on.
const DefaultGroups = 380

// Predictor labels normalised scores the way a pretrained model does for
// one training group. Labels are 1 for outliers.
type Predictor interface {
	Predict(scores []float64, group int) ([]int, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(scores []float64, group int) ([]int, error)

func (f PredictorFunc) Predict(scores []float64, group int) ([]int, error) {
	return f(scores, group)
}

// Vote queries p once for every group in [0, groups) and keeps the
// predictions that flag some but less than half of the scores. The result
// is the per-position mode of the kept predictions, ties resolving to
// inlier.
func Vote(p Predictor, scores []float64, groups int) ([]int, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no predictor configured", scoring.ErrValidation)
	}
	if groups < 1 {
		return nil, fmt.Errorf("%w: group count %d", scoring.ErrValidation, groups)
	}

	n := len(scores)
	ones := make([]int, n)
	kept := 0
	for g := range groups {
		labels, err := p.Predict(scores, g)
		if err != nil {
			return nil, fmt.Errorf("predict group %d: %w", g, err)
		}
		if len(labels) != n {
			return nil, scoring.NewAlgorithmError("meta", n,
				fmt.Sprintf("group %d returned %d labels", g, len(labels)))
		}

		outliers := scoring.CountOutliers(labels)
		if outliers == 0 || 2*outliers >= n {
			continue
		}
		for i, l := range labels {
			if l != 0 {
				ones[i]++
			}
		}
		kept++
	}

	log.Trace().Int("groups", groups).Int("kept", kept).Msg("ensemble vote")
	if kept == 0 {
		return nil, scoring.NewAlgorithmError("meta", n, "no group predicted an outlier ratio in (0, 0.5)")
	}

	out := make([]int, n)
	for i, c := range ones {
		if 2*c > kept {
			out[i] = 1
		}
	}
	return out, nil
}
