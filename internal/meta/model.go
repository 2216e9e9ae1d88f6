package meta

import (
	"fmt"
	"math"
	"strings"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// Family selects the classifier stored in a model artifact.
type Family string

const (
	// GaussianNB is a Gaussian naive Bayes classifier over (score, group).
	GaussianNB Family = "GNB"
	// Linear is a linear decision function over (score, group).
	Linear Family = "LIN"
)

// DefaultFamily is used when a config names no family.
const DefaultFamily = GaussianNB

// ParseFamily resolves a family name, case-insensitively.
func ParseFamily(name string) (Family, error) {
	switch f := Family(strings.ToUpper(strings.TrimSpace(name))); f {
	case GaussianNB, Linear:
		return f, nil
	case "":
		return DefaultFamily, nil
	default:
		return "", fmt.Errorf("%w: unknown model family %q", scoring.ErrValidation, name)
	}
}

const modelFeatures = 2

// Model is a pretrained classifier artifact. Every row it classifies has
// two features: the normalised score and the group id.
type Model struct {
	Family  Family `json:"family"`
	Version string `json:"version,omitempty"`

	// Gaussian naive Bayes parameters, one entry per class.
	Classes   []int       `json:"classes,omitempty"`
	Priors    []float64   `json:"priors,omitempty"`
	Means     [][]float64 `json:"means,omitempty"`
	Variances [][]float64 `json:"variances,omitempty"`

	// Linear parameters.
	Coef      []float64 `json:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty"`
}

// Validate checks the parameter shapes of the model's family.
func (m *Model) Validate() error {
	switch m.Family {
	case GaussianNB:
		k := len(m.Classes)
		if k == 0 || len(m.Priors) != k || len(m.Means) != k || len(m.Variances) != k {
			return fmt.Errorf("%w: GNB model needs classes, priors, means and variances of equal length", scoring.ErrValidation)
		}
		for c := range k {
			if m.Classes[c] != 0 && m.Classes[c] != 1 {
				return fmt.Errorf("%w: GNB class %d is not a 0/1 label", scoring.ErrValidation, m.Classes[c])
			}
			if m.Priors[c] <= 0 {
				return fmt.Errorf("%w: GNB prior %v for class %d", scoring.ErrValidation, m.Priors[c], m.Classes[c])
			}
			if len(m.Means[c]) != modelFeatures || len(m.Variances[c]) != modelFeatures {
				return fmt.Errorf("%w: GNB class %d needs %d features", scoring.ErrValidation, m.Classes[c], modelFeatures)
			}
			for _, v := range m.Variances[c] {
				if v <= 0 {
					return fmt.Errorf("%w: GNB variance %v for class %d", scoring.ErrValidation, v, m.Classes[c])
				}
			}
		}
	case Linear:
		if len(m.Coef) != modelFeatures {
			return fmt.Errorf("%w: LIN model needs %d coefficients, got %d", scoring.ErrValidation, modelFeatures, len(m.Coef))
		}
	default:
		return fmt.Errorf("%w: unknown model family %q", scoring.ErrValidation, m.Family)
	}
	return nil
}

// Predict implements Predictor.
func (m *Model) Predict(scores []float64, group int) ([]int, error) {
	labels := make([]int, len(scores))
	g := float64(group)
	switch m.Family {
	case GaussianNB:
		for i, s := range scores {
			labels[i] = m.naiveBayes(s, g)
		}
	case Linear:
		for i, s := range scores {
			if m.Coef[0]*s+m.Coef[1]*g+m.Intercept > 0 {
				labels[i] = 1
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown model family %q", scoring.ErrValidation, m.Family)
	}
	return labels, nil
}

func (m *Model) naiveBayes(score, group float64) int {
	features := [modelFeatures]float64{score, group}
	best, bestLog := m.Classes[0], math.Inf(-1)
	for c, class := range m.Classes {
		lp := math.Log(m.Priors[c])
		for f, v := range features {
			d := v - m.Means[c][f]
			lp -= 0.5*math.Log(2*math.Pi*m.Variances[c][f]) + d*d/(2*m.Variances[c][f])
		}
		if lp > bestLog {
			best, bestLog = class, lp
		}
	}
	return best
}
