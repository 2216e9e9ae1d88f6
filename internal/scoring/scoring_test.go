package scoring

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	scores := []float64{3, -1, 7, 5}
	got, err := Normalize(scores)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0, 1, 0.75}, got)
	// caller's slice untouched
	assert.Equal(t, []float64{3, -1, 7, 5}, scores)

	again, err := Normalize(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNormalizeDegenerate(t *testing.T) {
	t.Parallel()

	_, err := Normalize([]float64{5, 5, 5, 5, 5})
	require.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Normalize([]float64{1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = Normalize([]float64{1, math.NaN()})
	require.ErrorIs(t, err, ErrValidation)

	_, err = Normalize([]float64{1, math.Inf(1)})
	require.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeOrderPreserving(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	scores := make([]float64, 200)
	for i := range scores {
		scores[i] = rng.NormFloat64()*10 + 3
	}
	got, err := Normalize(scores)
	require.NoError(t, err)
	for i := range scores {
		assert.GreaterOrEqual(t, got[i], 0.0)
		assert.LessOrEqual(t, got[i], 1.0)
		for j := range scores {
			if scores[i] < scores[j] {
				assert.Less(t, got[i], got[j])
			}
		}
	}
}

func TestMinMaxScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{0, 0, 0}, MinMaxScale([]float64{2, 2, 2}))
	assert.Equal(t, []float64{0, 1, 0.5}, MinMaxScale([]float64{2, 4, 3}))

	m := mat.NewDense(3, 2, []float64{
		0, 10,
		5, 30,
		10, 20,
	})
	scaled := MinMaxScaleColumns(m)
	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, scaled))
	assert.Equal(t, []float64{0, 1, 0.5}, mat.Col(nil, 1, scaled))
}

func TestCut(t *testing.T) {
	t.Parallel()

	scores := []float64{0.1, 0.5, 0.9, 0.5}
	assert.Equal(t, []int{0, 0, 1, 0}, Cut(scores, 0.5))
	assert.Equal(t, []int{0, 1, 1, 1}, Cut(scores, 0.49))
	assert.Equal(t, 3, CountOutliers(Cut(scores, 0.2)))
}

func TestCutMonotonic(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(9, 9))
	scores := make([]float64, 100)
	for i := range scores {
		scores[i] = rng.Float64()
	}
	prev := len(scores) + 1
	for limit := -0.1; limit <= 1.1; limit += 0.01 {
		count := CountOutliers(Cut(scores, limit))
		assert.LessOrEqual(t, count, prev)
		prev = count
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, Mean(x), 1e-12)
	assert.InDelta(t, 2.5, Median(x), 1e-12)
	assert.InDelta(t, 2.0, Median([]float64{3, 1, 2}), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), Std(x), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), SampleStd(x), 1e-12)
	assert.InDelta(t, 1.0, MedianAbsDev(x), 1e-12)
	assert.InDelta(t, 0.0, GeometricMean([]float64{0, 1, 2}), 1e-12)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0, 1, 5))
	assert.InDelta(t, 0.5, Trapezoid([]float64{0, 1}, []float64{0, 1}), 1e-12)
	assert.Equal(t, 2, Round(2.5))
	assert.Equal(t, 4, Round(3.5))
}

func TestGenKDE(t *testing.T) {
	t.Parallel()

	x := []float64{0, 0.1, 0.2, 0.4, 1}
	curve, err := GenKDE(x, 0, 1, 201)
	require.NoError(t, err)
	require.Len(t, curve.Density, 201)
	require.Len(t, curve.Grid, 201)
	assert.InDelta(t, 0.0, curve.Grid[0], 1e-12)
	assert.InDelta(t, 1.0, curve.Grid[200], 1e-12)

	again, err := GenKDE(x, 0, 1, 201)
	require.NoError(t, err)
	assert.Equal(t, curve, again)

	wide, err := GenKDE(x, -10, 10, 4001)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Trapezoid(wide.Density, wide.Grid), 1e-3)

	_, err = GenKDE([]float64{1, 1, 1}, 0, 1, 10)
	require.ErrorIs(t, err, ErrDegenerateInput)
}

func TestDecompose(t *testing.T) {
	t.Parallel()

	rows := [][]float64{
		{0.1, 1},
		{0.2, 3},
		{0.9, 9},
		{0.3, 2},
	}
	m, err := FromRows(rows)
	require.NoError(t, err)

	got, err := Decompose(m, DefaultSeed)
	require.NoError(t, err)
	require.Len(t, got, 4)
	// the row that is extreme on both detectors stays the extreme one
	for i := range got {
		if i != 2 {
			assert.Less(t, got[i], got[2])
		}
	}

	again, err := Decompose(m, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	single := mat.NewDense(3, 1, []float64{4, 5, 6})
	pass, err := Decompose(single, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, pass)
}

func TestDecomposeSmallEigengap(t *testing.T) {
	t.Parallel()

	// two orthogonal detectors that differ by a single flagged row
	rows := make([][]float64, 99)
	want := make([]float64, 99)
	for i := range rows {
		if i < 50 {
			rows[i] = []float64{1, 0}
			want[i] = 1
		} else {
			rows[i] = []float64{0, 1}
		}
	}
	m, err := FromRows(rows)
	require.NoError(t, err)

	got, err := Decompose(m, DefaultSeed)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestPowerIterate(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(3, 2, []float64{
		3, 0,
		4, 0,
		0, 1,
	})
	v := powerIterate(m, DefaultSeed)
	require.NotNil(t, v)
	assert.InDelta(t, 1, math.Abs(v.AtVec(0)), 1e-6)
	assert.InDelta(t, 0, v.AtVec(1), 1e-6)

	assert.Nil(t, powerIterate(mat.NewDense(2, 2, nil), DefaultSeed))
}

func TestFromRowsRagged(t *testing.T) {
	t.Parallel()

	_, err := FromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = FromRows(nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAlgorithmError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("clust: %w", NewAlgorithmError("dbscan", 12, "no clusters"))
	require.ErrorIs(t, err, ErrAlgorithmFailure)

	var algErr *AlgorithmError
	require.True(t, errors.As(err, &algErr))
	assert.Equal(t, "dbscan", algErr.Backend)
	assert.Equal(t, 12, algErr.Size)
	assert.Contains(t, err.Error(), "dbscan")
}

func BenchmarkNormalize(b *testing.B) {
	sizes := []int{100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Scores%d", size), func(b *testing.B) {
			scores := make([]float64, size)
			for i := range scores {
				scores[i] = rand.Float64() * 100
			}

			b.ResetTimer()
			for b.Loop() {
				_, _ = Normalize(scores)
			}
		})
	}
}

func BenchmarkGenKDE(b *testing.B) {
	scores := make([]float64, 1000)
	for i := range scores {
		scores[i] = rand.Float64()
	}

	b.ResetTimer()
	for b.Loop() {
		_, _ = GenKDE(scores, 0, 1, 2*len(scores))
	}
}

func BenchmarkDecompose(b *testing.B) {
	numScores := 1000
	numDetectors := 5
	randomData := make([]float64, numScores*numDetectors)
	for i := range randomData {
		randomData[i] = rand.Float64() * 100
	}
	testMatrix := mat.NewDense(numScores, numDetectors, randomData)

	b.ResetTimer()
	for b.Loop() {
		_, _ = Decompose(testMatrix, DefaultSeed)
	}
}

func TestPlot(t *testing.T) {
	var buf bytes.Buffer
	Plot(&buf, []float64{0.3, 0.1, 0.9}, []int{0, 0, 1}, "scores")
	out := buf.String()

	assert.Contains(t, out, "scores (ascending):")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "|") && !strings.Contains(l, "Index") && !strings.HasPrefix(l, "---") {
			rows = append(rows, l)
		}
	}
	require.Len(t, rows, 3)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rows[0]), "1 |"))
	assert.Contains(t, rows[2], "*")
	assert.NotContains(t, rows[0], "*")

	buf.Reset()
	Plot(&buf, nil, nil, "empty")
	assert.Empty(t, buf.String())
}
