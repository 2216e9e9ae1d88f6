package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

func fixedPredictor(byGroup map[int][]int, n int) Predictor {
	return PredictorFunc(func(scores []float64, group int) ([]int, error) {
		if labels, ok := byGroup[group]; ok {
			return labels, nil
		}
		return make([]int, n), nil
	})
}

func TestVoteKeepsUsableGroups(t *testing.T) {
	scores := []float64{1, 0, 0.5, 0.2}
	p := fixedPredictor(map[int][]int{
		0: {0, 0, 0, 0}, // nothing flagged, dropped
		1: {1, 0, 0, 0},
		2: {1, 1, 0, 0}, // half flagged, dropped
		3: {1, 0, 1, 0},
	}, len(scores))

	labels, err := Vote(p, scores, 4)
	require.NoError(t, err)
	// position 2 is a one-one tie and resolves to inlier
	assert.Equal(t, []int{1, 0, 0, 0}, labels)
}

func TestVoteWithoutUsableGroups(t *testing.T) {
	scores := []float64{0, 0.5, 1}
	_, err := Vote(fixedPredictor(nil, len(scores)), scores, DefaultGroups)

	var algErr *scoring.AlgorithmError
	require.True(t, errors.As(err, &algErr))
	assert.Equal(t, "meta", algErr.Backend)
	assert.Equal(t, 3, algErr.Size)
}

func TestVoteErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Vote(PredictorFunc(func([]float64, int) ([]int, error) { return nil, boom }), []float64{0, 1}, 3)
	assert.ErrorIs(t, err, boom)

	_, err = Vote(nil, []float64{0, 1}, 3)
	assert.ErrorIs(t, err, scoring.ErrValidation)

	_, err = Vote(fixedPredictor(nil, 2), []float64{0, 1}, 0)
	assert.ErrorIs(t, err, scoring.ErrValidation)

	short := PredictorFunc(func([]float64, int) ([]int, error) { return []int{1}, nil })
	_, err = Vote(short, []float64{0, 1}, 1)
	assert.ErrorIs(t, err, scoring.ErrAlgorithmFailure)
}

func gnbModel() *Model {
	return &Model{
		Family:    GaussianNB,
		Version:   "test",
		Classes:   []int{0, 1},
		Priors:    []float64{0.9, 0.1},
		Means:     [][]float64{{0.2, 190}, {0.9, 190}},
		Variances: [][]float64{{0.01, 1e4}, {0.01, 1e4}},
	}
}

func TestModelPredict(t *testing.T) {
	labels, err := gnbModel().Predict([]float64{0.1, 0.95, 0.3}, 12)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, labels)

	lin := &Model{Family: Linear, Coef: []float64{10, 0}, Intercept: -5}
	require.NoError(t, lin.Validate())
	labels, err = lin.Predict([]float64{0.4, 0.5, 0.6}, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, labels)
}

func TestModelValidate(t *testing.T) {
	bad := gnbModel()
	bad.Variances[1][0] = 0
	assert.ErrorIs(t, bad.Validate(), scoring.ErrValidation)

	assert.ErrorIs(t, (&Model{Family: Linear, Coef: []float64{1}}).Validate(), scoring.ErrValidation)
	assert.ErrorIs(t, (&Model{Family: "SVM"}).Validate(), scoring.ErrValidation)
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("lin")
	require.NoError(t, err)
	assert.Equal(t, Linear, f)

	f, err = ParseFamily("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFamily, f)

	_, err = ParseFamily("knn")
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	for name, compress := range map[string]bool{"model.json": false, "model.json.zst": true} {
		t.Run(name, func(t *testing.T) {
			raw, err := Encode(gnbModel(), compress)
			require.NoError(t, err)
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, raw, 0o600))

			model, err := Load(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, gnbModel(), model)
		})
	}
}

func TestLoadFromURL(t *testing.T) {
	raw, err := Encode(gnbModel(), true)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	model, err := Load(context.Background(), srv.URL+"/meta_model_GNB.json.zst")
	require.NoError(t, err)
	assert.Equal(t, GaussianNB, model.Family)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeLowercaseFamily(t *testing.T) {
	model, err := Decode([]byte(`{"family":"lin","coef":[1,0],"intercept":-0.5}`))
	require.NoError(t, err)
	assert.Equal(t, Linear, model.Family)
}

func BenchmarkVote(b *testing.B) {
	scores := scoring.Linspace(0, 1, 1000)
	model := gnbModel()
	for b.Loop() {
		_, _ = Vote(model, scores, DefaultGroups)
	}
}
