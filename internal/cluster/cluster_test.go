package cluster

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// separated returns 40 evenly spaced inliers in [0, 0.39] followed by
// three outliers near 1.
func separated() []float64 {
	x := make([]float64, 0, 43)
	for i := range 40 {
		x = append(x, float64(i)/100)
	}
	return append(x, 0.95, 0.97, 1.0)
}

func uniform(n int) []float64 {
	return scoring.Linspace(0, 1, n)
}

func assertBinary(t *testing.T, labels []int, n int) {
	t.Helper()
	require.Len(t, labels, n)
	for i, l := range labels {
		assert.Contains(t, []int{0, 1}, l, "label %d", i)
	}
}

func TestPartitionEveryKind(t *testing.T) {
	x := separated()
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			labels, err := Partition(kind, x, scoring.DefaultSeed)
			require.NoError(t, err)
			assertBinary(t, labels, len(x))
		})
	}
}

func TestPartitionSeparatedGroups(t *testing.T) {
	x := separated()
	want := make([]int, len(x))
	want[40], want[41], want[42] = 1, 1, 1

	for _, kind := range []Kind{KMeans, XMeans, Agglomerative, BSAS, MBSAS, EMA, DBSCAN} {
		t.Run(string(kind), func(t *testing.T) {
			labels, err := Partition(kind, x, scoring.DefaultSeed)
			require.NoError(t, err)
			assert.Equal(t, want, labels)
		})
	}
}

func TestPartitionUniformKeepsMajorityInliers(t *testing.T) {
	x := uniform(50)
	for _, kind := range Kinds() {
		if kind == MeanShift {
			continue
		}
		t.Run(string(kind), func(t *testing.T) {
			labels, err := Partition(kind, x, scoring.DefaultSeed)
			if err != nil {
				require.ErrorIs(t, err, scoring.ErrAlgorithmFailure)
				return
			}
			assertBinary(t, labels, len(x))
			assert.LessOrEqual(t, scoring.CountOutliers(labels), 25)
		})
	}
}

func TestDBSCANWithoutCorePoints(t *testing.T) {
	_, err := Partition(DBSCAN, uniform(50), scoring.DefaultSeed)
	require.Error(t, err)

	var algErr *scoring.AlgorithmError
	require.True(t, errors.As(err, &algErr))
	assert.Equal(t, string(DBSCAN), algErr.Backend)
	assert.Equal(t, 50, algErr.Size)
	assert.ErrorIs(t, err, scoring.ErrAlgorithmFailure)
}

func TestSeededBackendsAreDeterministic(t *testing.T) {
	x := separated()
	for _, kind := range []Kind{BayesianGMM, EMA, Spectral} {
		t.Run(string(kind), func(t *testing.T) {
			first, err := Assign(kind, x, 7)
			require.NoError(t, err)
			second, err := Assign(kind, x, 7)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" KMeans ")
	require.NoError(t, err)
	assert.Equal(t, KMeans, k)

	_, err = ParseKind("hdbscan")
	assert.ErrorIs(t, err, scoring.ErrValidation)

	_, err = Assign(Kind("nope"), separated(), 0)
	assert.ErrorIs(t, err, scoring.ErrValidation)
}

func TestOrient(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want []int
	}{
		{"first cluster inliers", []int{0, 0, 0, 1}, []int{0, 0, 0, 1}},
		{"noise is outlier", []int{0, 0, Noise, 0}, []int{0, 0, 1, 0}},
		{"majority flipped", []int{1, 1, 1, 0}, []int{0, 0, 0, 1}},
		{"half kept", []int{1, 1, 0, 0}, []int{1, 1, 0, 0}},
		{"five of seven flipped", []int{1, 1, 1, 1, 1, 0, 0}, []int{0, 0, 0, 0, 0, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orient(tt.ids))
		})
	}
}

func TestModeInliers(t *testing.T) {
	assert.Equal(t, []int{1, 0, 0, 1, 0}, modeInliers([]int{0, 1, 1, 2, 1}))
	// ties go to the lower id
	assert.Equal(t, []int{0, 1, 0, 1}, modeInliers([]int{0, 1, 0, 1}))
}

func TestOptimalSplit(t *testing.T) {
	lower, upper := optimalSplit([]float64{0, 0.1, 0.2, 0.9, 1})
	assert.InDelta(t, 0.1, lower, 1e-12)
	assert.InDelta(t, 0.95, upper, 1e-12)
}

func TestEstimateBandwidth(t *testing.T) {
	// k = 2: each point's nearest neighbour besides itself is 1 away
	assert.InDelta(t, 1.0, estimateBandwidth([]float64{0, 1, 2, 3}, 0.5), 1e-12)
}

func TestLowerFirst(t *testing.T) {
	x := []float64{0.9, 0.1, 0.2}
	assert.Equal(t, []int{1, 0, 0}, lowerFirst(x, []int{0, 1, 1}))
	assert.Equal(t, []int{1, 0, 0}, lowerFirst(x, []int{1, 0, 0}))
}

func BenchmarkPartition(b *testing.B) {
	x := make([]float64, 0, 500)
	for i := range 500 {
		x = append(x, float64(i%97)/96)
	}
	for _, kind := range []Kind{KMeans, DBSCAN, Optics, Spectral, EMA} {
		b.Run(fmt.Sprintf("kind=%s", kind), func(b *testing.B) {
			for b.Loop() {
				_, _ = Partition(kind, x, scoring.DefaultSeed)
			}
		})
	}
}
