package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/threshold/internal/cache"
	"github.com/tensorplex-labs/threshold/internal/metrics"
	"github.com/tensorplex-labs/threshold/internal/scoring"
	"github.com/tensorplex-labs/threshold/internal/threshold"
	"github.com/tensorplex-labs/threshold/pkg/schnitz"
)

var spike = []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 100}

func capped() []float64 {
	x := make([]float64, 30, 33)
	return append(x, 100, 90, 80)
}

func newService(t *testing.T) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	c := cache.New(cache.NewMemory(16, time.Minute), time.Minute, m.ObserveCache)
	t.Cleanup(c.Close)
	return New(threshold.MAD, threshold.DefaultOptions(), nil, c, m), m
}

func TestThresholdCachesResults(t *testing.T) {
	svc, m := newService(t)
	ctx := context.Background()

	first, err := svc.Threshold(ctx, schnitz.ThresholdRequest{Scores: spike})
	require.NoError(t, err)
	assert.Equal(t, "mad", first.Method)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, first.Labels)
	assert.Equal(t, 1, first.Outliers)
	assert.NotNil(t, first.Threshold)
	assert.False(t, first.Cached)

	second, err := svc.Threshold(ctx, schnitz.ThresholdRequest{Scores: spike})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, *first.Threshold, *second.Threshold)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("mad")))
}

func TestThresholdRequestOptions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	resp, err := svc.Threshold(ctx, schnitz.ThresholdRequest{Method: "gesd", Scores: capped()})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Outliers)

	resp, err = svc.Threshold(ctx, schnitz.ThresholdRequest{
		Method:  "GESD",
		Scores:  capped(),
		Options: &schnitz.ThresholdOptions{GESDMaxOutliers: ptr(2)},
	})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 2, resp.Outliers)
}

func TestThresholdErrors(t *testing.T) {
	svc, m := newService(t)
	ctx := context.Background()

	_, err := svc.Threshold(ctx, schnitz.ThresholdRequest{Method: "iqr", Scores: spike})
	assert.ErrorIs(t, err, scoring.ErrValidation)

	_, err = svc.Threshold(ctx, schnitz.ThresholdRequest{Method: "meta", Scores: spike})
	assert.ErrorIs(t, err, scoring.ErrValidation)

	_, err = svc.Threshold(ctx, schnitz.ThresholdRequest{Scores: []float64{5, 5, 5, 5}})
	assert.ErrorIs(t, err, scoring.ErrDegenerateInput)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("mad", "degenerate")))
}

func TestHandlerStatuses(t *testing.T) {
	svc, _ := newService(t)
	server := schnitz.NewServer(nil)
	schnitz.ServeRoute(server, svc.Handler())

	tests := []struct {
		name string
		req  schnitz.ThresholdRequest
		code int
	}{
		{"ok", schnitz.ThresholdRequest{Scores: spike}, fiber.StatusOK},
		{"unknown method", schnitz.ThresholdRequest{Method: "iqr", Scores: spike}, fiber.StatusBadRequest},
		{"too few scores", schnitz.ThresholdRequest{Scores: []float64{1}}, fiber.StatusBadRequest},
		{"constant scores", schnitz.ThresholdRequest{Scores: []float64{2, 2, 2}}, fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := sonic.Marshal(tt.req)
			require.NoError(t, err)
			req := httptest.NewRequest("POST", "/ThresholdRequest", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.App.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var out schnitz.StdResponse[schnitz.ThresholdResponse]
			require.NoError(t, sonic.Unmarshal(raw, &out))
			if tt.code == fiber.StatusOK {
				assert.Nil(t, out.Error)
				assert.Len(t, out.Body.Labels, len(tt.req.Scores))
			} else {
				assert.NotNil(t, out.Error)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusOf(fmt.Errorf("x: %w", scoring.ErrValidation)))
	assert.Equal(t, fiber.StatusUnprocessableEntity, StatusOf(scoring.ErrDegenerateInput))
	assert.Equal(t, fiber.StatusUnprocessableEntity, StatusOf(scoring.NewAlgorithmError("dbscan", 5, "")))
	assert.Equal(t, fiber.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func ptr[T any](v T) *T {
	return &v
}

func TestApplyOptions(t *testing.T) {
	base := threshold.DefaultOptions()

	got, err := ApplyOptions(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, got)

	got, err = ApplyOptions(base, &schnitz.ThresholdOptions{Filter: ptr(string(threshold.FilterSavgol)), Sigma: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, threshold.FilterSavgol, got.Filter)
	assert.Equal(t, 3.0, got.Sigma)
	assert.Equal(t, base.Seed, got.Seed)
	assert.Equal(t, base.Cluster, got.Cluster)
	assert.Equal(t, base.GESDAlpha, got.GESDAlpha)

	_, err = ApplyOptions(base, &schnitz.ThresholdOptions{GESDAlpha: ptr(2.0)})
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestApplyOptionsResetsToZero(t *testing.T) {
	base := threshold.DefaultOptions()
	base.Sigma = 4
	base.MTTMaxOutliers = 1
	base.GESDMaxOutliers = 2

	got, err := ApplyOptions(base, &schnitz.ThresholdOptions{
		Sigma:           ptr(0.0),
		MTTMaxOutliers:  ptr(0),
		GESDMaxOutliers: ptr(0),
	})
	require.NoError(t, err)
	assert.Zero(t, got.Sigma)
	assert.Zero(t, got.MTTMaxOutliers)
	assert.Zero(t, got.GESDMaxOutliers)
}

func TestThresholdResetsConfiguredCap(t *testing.T) {
	defaults := threshold.DefaultOptions()
	defaults.MTTMaxOutliers = 1
	svc := New(threshold.MTT, defaults, nil, nil, nil)
	ctx := context.Background()

	resp, err := svc.Threshold(ctx, schnitz.ThresholdRequest{Scores: capped()})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Outliers)

	resp, err = svc.Threshold(ctx, schnitz.ThresholdRequest{
		Scores:  capped(),
		Options: &schnitz.ThresholdOptions{MTTMaxOutliers: ptr(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Outliers)
}

func TestThresholdMatrix(t *testing.T) {
	svc, m := newService(t)
	ctx := context.Background()

	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = []float64{0, 0}
	}
	rows[9] = []float64{100, 50}

	resp, err := svc.Threshold(ctx, schnitz.ThresholdRequest{Matrix: rows})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, resp.Labels)
	assert.False(t, resp.Cached)

	resp, err = svc.Threshold(ctx, schnitz.ThresholdRequest{Matrix: rows})
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))

	_, err = svc.Threshold(ctx, schnitz.ThresholdRequest{Matrix: [][]float64{{1, 2}, {3}}})
	assert.ErrorIs(t, err, scoring.ErrValidation)

	_, err = svc.Threshold(ctx, schnitz.ThresholdRequest{Scores: spike, Matrix: rows})
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestMethods(t *testing.T) {
	methods := Methods()
	require.Len(t, methods, len(threshold.Methods()))
	for _, m := range methods {
		assert.NotEmpty(t, m.Description, m.Name)
	}
}
