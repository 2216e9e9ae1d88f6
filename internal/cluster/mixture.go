package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/tensorplex-labs/threshold/internal/scoring"
)

const (
	mixtureComponents = 2
	mixtureMaxIter    = 100
	mixtureTol        = 1e-3
	mixtureRegVar     = 1e-6
	mixtureMinMass    = 1e-15
)

type mixture struct {
	weights   []float64
	means     []float64
	variances []float64
}

// mixtureConfig selects the variance model and the priors of the fit.
type mixtureConfig struct {
	tied bool
	// bayes shrinks weights towards a symmetric Dirichlet prior and means
	// towards the data mean, which keeps empty components alive.
	bayes bool
}

func (m mixture) logDensity(c int, v float64) float64 {
	d := v - m.means[c]
	return math.Log(m.weights[c]) - 0.5*math.Log(2*math.Pi*m.variances[c]) - d*d/(2*m.variances[c])
}

// responsibilities returns the posterior component probabilities of every
// point and the mean log likelihood.
func (m mixture) responsibilities(x []float64) ([][]float64, float64) {
	resp := make([][]float64, len(x))
	var ll float64
	logp := make([]float64, len(m.means))
	for i, v := range x {
		top := math.Inf(-1)
		for c := range m.means {
			logp[c] = m.logDensity(c, v)
			top = math.Max(top, logp[c])
		}
		var norm float64
		for c := range logp {
			norm += math.Exp(logp[c] - top)
		}
		lse := top + math.Log(norm)
		ll += lse

		resp[i] = make([]float64, len(m.means))
		for c := range logp {
			resp[i][c] = math.Exp(logp[c] - lse)
		}
	}
	return resp, ll / float64(len(x))
}

func (m *mixture) maximise(x []float64, resp [][]float64, cfg mixtureConfig) {
	k := len(m.means)
	n := float64(len(x))
	mean := scoring.Mean(x)

	nk := make([]float64, k)
	for c := range k {
		var sum, weighted float64
		for i, v := range x {
			sum += resp[i][c]
			weighted += resp[i][c] * v
		}
		nk[c] = sum + mixtureMinMass
		if cfg.bayes {
			m.means[c] = (weighted + mean) / (nk[c] + 1)
		} else {
			m.means[c] = weighted / nk[c]
		}
	}

	prior := 0.0
	if cfg.bayes {
		prior = 1 / float64(k)
	}
	nkWeights := make([]float64, k)
	for c := range k {
		nkWeights[c] = nk[c] + prior
	}
	copy(m.weights, scoring.L1Normalize(nkWeights))

	if cfg.tied {
		var pooled float64
		for c := range k {
			for i, v := range x {
				d := v - m.means[c]
				pooled += resp[i][c] * d * d
			}
		}
		pooled = pooled/n + mixtureRegVar
		for c := range k {
			m.variances[c] = pooled
		}
		return
	}
	for c := range k {
		var sq float64
		for i, v := range x {
			d := v - m.means[c]
			sq += resp[i][c] * d * d
		}
		m.variances[c] = sq/nk[c] + mixtureRegVar
	}
}

// fitMixture fits a two component Gaussian mixture by EM, initialised from
// a seeded k-means partition, and returns hard assignments with the
// lower-mean component as cluster 0.
func fitMixture(x []float64, seed uint64, cfg mixtureConfig) []int {
	rng := rand.New(rand.NewPCG(seed, seed))
	points := make([][]float64, len(x))
	for i, v := range x {
		points[i] = []float64{v}
	}
	init := seededKMeans(points, mixtureComponents, 1, rng)

	resp := make([][]float64, len(x))
	for i, id := range init {
		resp[i] = make([]float64, mixtureComponents)
		resp[i][id] = 1
	}

	m := mixture{
		weights:   make([]float64, mixtureComponents),
		means:     make([]float64, mixtureComponents),
		variances: make([]float64, mixtureComponents),
	}
	m.maximise(x, resp, cfg)

	prev := math.Inf(-1)
	for range mixtureMaxIter {
		var ll float64
		resp, ll = m.responsibilities(x)
		m.maximise(x, resp, cfg)
		if math.Abs(ll-prev) < mixtureTol {
			break
		}
		prev = ll
	}

	resp, _ = m.responsibilities(x)
	ids := make([]int, len(x))
	for i, r := range resp {
		if r[1] > r[0] {
			ids[i] = 1
		}
	}
	if m.means[1] < m.means[0] {
		for i := range ids {
			ids[i] = 1 - ids[i]
		}
	}
	return ids
}

// bayesianMixture is a tied-variance mixture with weight and mean priors.
func bayesianMixture(x []float64, seed uint64) ([]int, error) {
	return fitMixture(x, seed, mixtureConfig{tied: true, bayes: true}), nil
}

// emMixture is the plain maximum likelihood mixture with one variance per
// component.
func emMixture(x []float64, seed uint64) ([]int, error) {
	return fitMixture(x, seed, mixtureConfig{}), nil
}
