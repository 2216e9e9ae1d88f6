package scoring

// Cut labels every score strictly above limit as an outlier (1). A score
// equal to limit is an inlier.
func Cut(scores []float64, limit float64) []int {
	labels := make([]int, len(scores))
	for i, s := range scores {
		if s > limit {
			labels[i] = 1
		}
	}
	return labels
}

// CountOutliers returns the number of ones in labels.
func CountOutliers(labels []int) int {
	count := 0
	for _, l := range labels {
		count += l
	}
	return count
}
