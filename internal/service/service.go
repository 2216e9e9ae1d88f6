// Package service answers threshold requests for the HTTP server: it applies
// request options over the configured defaults, consults the result cache
// and reports every evaluation to an observer.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/threshold/internal/cache"
	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/meta"
	"github.com/tensorplex-labs/threshold/internal/scoring"
	"github.com/tensorplex-labs/threshold/internal/threshold"
	"github.com/tensorplex-labs/threshold/pkg/schnitz"
)

type Service struct {
	defaults  threshold.Options
	method    threshold.Method
	predictor meta.Predictor
	cache     *cache.Cache
	observer  threshold.Observer
}

// New builds a service. predictor, results and observer may be nil; without
// a predictor meta requests fail validation.
func New(
	method threshold.Method,
	defaults threshold.Options,
	predictor meta.Predictor,
	results *cache.Cache,
	observer threshold.Observer,
) *Service {
	return &Service{
		defaults:  defaults,
		method:    method,
		predictor: predictor,
		cache:     results,
		observer:  observer,
	}
}

// Threshold labels req.Scores, or the rows of req.Matrix reduced to one
// score each.
func (s *Service) Threshold(ctx context.Context, req schnitz.ThresholdRequest) (schnitz.ThresholdResponse, error) {
	method := s.method
	if req.Method != "" {
		m, err := threshold.ParseMethod(req.Method)
		if err != nil {
			return schnitz.ThresholdResponse{}, err
		}
		method = m
	}

	opts, err := ApplyOptions(s.defaults, req.Options)
	if err != nil {
		return schnitz.ThresholdResponse{}, err
	}

	var key string
	var eval func(threshold.Thresholder) (threshold.Result, error)
	switch {
	case len(req.Matrix) > 0 && len(req.Scores) > 0:
		return schnitz.ThresholdResponse{}, fmt.Errorf("%w: request sets both scores and matrix", scoring.ErrValidation)
	case len(req.Matrix) > 0:
		m, err := scoring.FromRows(req.Matrix)
		if err != nil {
			return schnitz.ThresholdResponse{}, err
		}
		key = cache.MatrixKey(method, opts, m)
		eval = func(t threshold.Thresholder) (threshold.Result, error) {
			return threshold.EvalMatrix(t, m, opts.Seed)
		}
	default:
		key = cache.Key(method, opts, req.Scores)
		eval = func(t threshold.Thresholder) (threshold.Result, error) {
			return t.Eval(req.Scores)
		}
	}

	if s.cache != nil {
		if res, ok := s.cache.Lookup(ctx, key); ok {
			log.Debug().Str("method", string(method)).Str("key", key).Msg("serving cached result")
			return response(*res, true), nil
		}
	}

	opts.Predictor = s.predictor
	t, err := threshold.New(method, threshold.WithOptions(opts))
	if err != nil {
		return schnitz.ThresholdResponse{}, err
	}
	res, err := eval(threshold.NewInstrumented(t, s.observer))
	if err != nil {
		return schnitz.ThresholdResponse{}, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, key, res); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache result")
		}
	}
	return response(res, false), nil
}

// Handler adapts Threshold to a schnitz route, mapping errors to statuses
// with StatusOf.
func (s *Service) Handler() schnitz.RouterHandler[schnitz.ThresholdRequest, schnitz.ThresholdResponse] {
	return func(c *fiber.Ctx, req schnitz.ThresholdRequest) (schnitz.ThresholdResponse, error) {
		resp, err := s.Threshold(c.UserContext(), req)
		if err != nil {
			return resp, fiber.NewError(StatusOf(err), err.Error())
		}
		return resp, nil
	}
}

// Methods lists the served procedures.
func Methods() []schnitz.MethodInfo {
	methods := threshold.Methods()
	out := make([]schnitz.MethodInfo, len(methods))
	for i, m := range methods {
		out[i] = schnitz.MethodInfo{Name: string(m), Description: m.Description()}
	}
	return out
}

// StatusOf maps an evaluation error to an HTTP status: bad input is 400,
// input the procedure cannot label is 422, anything else is 500.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, scoring.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, scoring.ErrDegenerateInput), errors.Is(err, scoring.ErrAlgorithmFailure):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ApplyOptions overlays the set fields of override on base and validates
// the result. A nil override returns base unchanged.
func ApplyOptions(base threshold.Options, override *schnitz.ThresholdOptions) (threshold.Options, error) {
	if override.IsZero() {
		return base, nil
	}
	o := *override
	if o.Seed != nil {
		base.Seed = *o.Seed
	}
	if o.Cluster != nil {
		base.Cluster = cluster.Kind(*o.Cluster)
	}
	if o.Filter != nil {
		base.Filter = threshold.FilterKind(*o.Filter)
	}
	if o.Sigma != nil {
		base.Sigma = *o.Sigma
	}
	if o.Center != nil {
		base.Center = threshold.Center(*o.Center)
	}
	if o.GESDAlpha != nil {
		base.GESDAlpha = *o.GESDAlpha
	}
	if o.GESDMaxOutliers != nil {
		base.GESDMaxOutliers = *o.GESDMaxOutliers
	}
	if o.MTTAlpha != nil {
		base.MTTAlpha = *o.MTTAlpha
	}
	if o.MTTMaxOutliers != nil {
		base.MTTMaxOutliers = *o.MTTMaxOutliers
	}
	if o.MetaGroups != nil {
		base.MetaGroups = *o.MetaGroups
	}
	return base, base.Validate()
}

func response(res threshold.Result, cached bool) schnitz.ThresholdResponse {
	return schnitz.ThresholdResponse{
		Method:    string(res.Method),
		Labels:    res.Labels,
		Threshold: res.Threshold,
		Outliers:  res.Outliers(),
		Cached:    cached,
	}
}

func (s *Service) String() string {
	return fmt.Sprintf("service(method=%s, cache=%t, meta=%t)", s.method, s.cache != nil, s.predictor != nil)
}
