package threshold

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/threshold/internal/utils/logger"
)

// Observer receives one call per evaluation.
type Observer interface {
	ObserveEvaluation(method string, size, outliers int, elapsed time.Duration, err error)
}

// Instrumented logs and reports every evaluation of the wrapped
// Thresholder.
type Instrumented struct {
	Thresholder
	observer Observer
}

// NewInstrumented wraps t; a nil observer only logs.
func NewInstrumented(t Thresholder, observer Observer) *Instrumented {
	if p, ok := t.(interface{ Options() Options }); ok {
		opts := p.Options()
		logger.Sugar().Debugw("threshold procedure configured",
			"method", t.Method(),
			"seed", opts.Seed,
			"cluster", opts.Cluster,
			"filter", opts.Filter,
			"sigma", opts.Sigma,
			"center", opts.Center,
		)
	}
	return &Instrumented{Thresholder: t, observer: observer}
}

func (i *Instrumented) Eval(scores []float64) (Result, error) {
	start := time.Now()
	res, err := i.Thresholder.Eval(scores)
	elapsed := time.Since(start)

	outliers := 0
	if err == nil {
		outliers = res.Outliers()
	}
	if i.observer != nil {
		i.observer.ObserveEvaluation(string(i.Method()), len(scores), outliers, elapsed, err)
	}

	if err != nil {
		log.Debug().
			Err(err).
			Str("method", string(i.Method())).
			Int("size", len(scores)).
			Msg("threshold evaluation failed")
		return res, err
	}

	event := log.Debug().
		Str("method", string(i.Method())).
		Int("size", len(scores)).
		Int("outliers", outliers).
		Dur("elapsed", elapsed)
	if res.Threshold != nil {
		event = event.Float64("threshold", *res.Threshold)
	}
	event.Msg("threshold evaluated")
	return res, nil
}
