package cluster

import (
	"slices"
)

// bangLevels is the depth of the BANG directory; a 1-D directory of this
// depth has 2^(levels-1) leaf blocks.
const bangLevels = 8

// bang bins the points into equal leaf blocks and grows clusters from the
// densest block through adjacent occupied blocks. Empty blocks separate
// clusters.
func bang(x []float64, _ uint64) ([]int, error) {
	blocks := 1 << (bangLevels - 1)
	lo, hi := slices.Min(x), slices.Max(x)
	width := hi - lo

	blockOf := make([]int, len(x))
	counts := make([]int, blocks)
	for i, v := range x {
		b := 0
		if width > 0 {
			b = min(int((v-lo)/width*float64(blocks)), blocks-1)
		}
		blockOf[i] = b
		counts[b]++
	}

	order := make([]int, blocks)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return counts[b] - counts[a] })

	blockCluster := make([]int, blocks)
	for i := range blockCluster {
		blockCluster[i] = Noise
	}
	next := 0
	for _, b := range order {
		if counts[b] == 0 || blockCluster[b] != Noise {
			continue
		}
		blockCluster[b] = next
		for l := b - 1; l >= 0 && counts[l] > 0; l-- {
			blockCluster[l] = next
		}
		for r := b + 1; r < blocks && counts[r] > 0; r++ {
			blockCluster[r] = next
		}
		next++
	}

	if next == 0 {
		return nil, noClusters(Bang, len(x))
	}

	ids := make([]int, len(x))
	for i, b := range blockOf {
		ids[i] = blockCluster[b]
	}
	return ids, nil
}
