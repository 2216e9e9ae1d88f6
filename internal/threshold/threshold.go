// Package threshold turns anomaly scores into inlier/outlier labels.
//
// Every procedure normalises the scores to [0, 1], derives a cut point from
// their distribution and labels the scores beyond it as outliers (1).
// Procedures are stateless and safe for concurrent use; Recorder keeps the
// last result for callers that want it.
package threshold

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// Result is the outcome of one evaluation. Threshold is nil for the
// procedures without a scalar cut point (clust, meta); for chau it lives in
// probability space rather than score space.
type Result struct {
	Labels    []int    `json:"labels"`
	Threshold *float64 `json:"threshold"`
	Method    Method   `json:"method"`
}

// Outliers counts the positive labels.
func (r Result) Outliers() int {
	return scoring.CountOutliers(r.Labels)
}

type Thresholder interface {
	Method() Method
	Eval(scores []float64) (Result, error)
}

// evalFunc labels normalised scores and returns the cut point, if any.
type evalFunc func(x []float64, o Options) ([]int, *float64, error)

var registry = map[Method]evalFunc{
	AUCP:   evalAUCP,
	Chau:   evalChau,
	Clust:  evalClust,
	EB:     evalEB,
	Filter: evalFilter,
	FWFM:   evalFWFM,
	GESD:   evalGESD,
	MAD:    evalMAD,
	Meta:   evalMeta,
	Moll:   evalMoll,
	MTT:    evalMTT,
}

type procedure struct {
	method Method
	opts   Options
	eval   evalFunc
}

// New builds the procedure for method from the default options modified by
// opts.
func New(method Method, opts ...Option) (Thresholder, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o = o.normalize()
	if err := o.Validate(); err != nil {
		return nil, err
	}

	eval, ok := registry[method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", scoring.ErrValidation, method)
	}
	if method == Meta && o.Predictor == nil {
		return nil, fmt.Errorf("%w: meta needs a predictor", scoring.ErrValidation)
	}
	return &procedure{method: method, opts: o, eval: eval}, nil
}

func (p *procedure) Method() Method {
	return p.method
}

// Options returns the resolved options of the procedure.
func (p *procedure) Options() Options {
	return p.opts
}

func (p *procedure) Eval(scores []float64) (Result, error) {
	x, err := scoring.Normalize(scores)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", p.method, err)
	}

	labels, limit, err := p.eval(x, p.opts)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", p.method, err)
	}
	return Result{Labels: labels, Threshold: limit, Method: p.method}, nil
}

// EvalMatrix reduces an (n, d) matrix of scores from d detectors to one
// score per row and evaluates it with t.
func EvalMatrix(t Thresholder, scores mat.Matrix, seed uint64) (Result, error) {
	reduced, err := scoring.Decompose(scores, seed)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", t.Method(), err)
	}
	return t.Eval(reduced)
}

func limitOf(v float64) *float64 {
	return &v
}
