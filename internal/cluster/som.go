package cluster

import (
	"math"
	"slices"
)

const (
	somNeurons      = 2
	somEpochs       = 100
	somLearningRate = 0.1
	somInitRadius   = 1.0
)

// somsc trains a one-row self-organising map of two neurons spread evenly
// over the data range and clusters every point by its winning neuron.
func somsc(x []float64, _ uint64) ([]int, error) {
	lo, hi := slices.Min(x), slices.Max(x)
	weights := make([]float64, somNeurons)
	for i := range weights {
		weights[i] = lo + (hi-lo)*(float64(i)+0.5)/somNeurons
	}

	winner := func(v float64) int {
		best, dist := 0, math.Inf(1)
		for i, w := range weights {
			if d := math.Abs(v - w); d < dist {
				best, dist = i, d
			}
		}
		return best
	}

	for epoch := range somEpochs {
		decay := math.Exp(-float64(epoch) / somEpochs)
		rate := somLearningRate * decay
		radius := somInitRadius * decay
		for _, v := range x {
			w := winner(v)
			for i := range weights {
				// grid distance between neighbouring neurons is one
				gridSq := float64((i - w) * (i - w))
				if i != w && gridSq >= radius*radius {
					continue
				}
				influence := math.Exp(-gridSq / (2 * radius * radius))
				weights[i] += rate * influence * (v - weights[i])
			}
		}
	}

	ids := make([]int, len(x))
	for i, v := range x {
		ids[i] = winner(v)
	}
	return ids, nil
}
