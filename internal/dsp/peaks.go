package dsp

// LocalMaxima returns the indices of local maxima of x. A flat peak is
// reported at the (lower) midpoint of its plateau; the end points are
// never peaks.
func LocalMaxima(x []float64) []int {
	var peaks []int
	iMax := len(x) - 1
	i := 1
	for i < iMax {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < iMax && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// Prominence is the topographic prominence of a peak with the indices of
// its left and right bases.
type Prominence struct {
	Value     float64
	LeftBase  int
	RightBase int
}

// PeakProminence measures how far x[peak] rises above the higher of the
// two minima reached before the signal climbs above the peak again.
func PeakProminence(x []float64, peak int) Prominence {
	leftMin, leftBase := x[peak], peak
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin, leftBase = x[i], i
		}
	}

	rightMin, rightBase := x[peak], peak
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin, rightBase = x[i], i
		}
	}

	return Prominence{
		Value:     x[peak] - max(leftMin, rightMin),
		LeftBase:  leftBase,
		RightBase: rightBase,
	}
}

// FindPeaks returns the local maxima whose prominence is at least
// minProminence, in ascending index order.
func FindPeaks(x []float64, minProminence float64) ([]int, []Prominence) {
	var (
		peaks []int
		proms []Prominence
	)
	for _, p := range LocalMaxima(x) {
		prom := PeakProminence(x, p)
		if prom.Value >= minProminence {
			peaks = append(peaks, p)
			proms = append(proms, prom)
		}
	}
	return peaks, proms
}

// PeakWidth is the width of a peak, in samples, measured at relHeight of
// its prominence below the summit, with linear interpolation between
// samples and bounded by the peak's bases.
func PeakWidth(x []float64, peak int, prom Prominence, relHeight float64) float64 {
	height := x[peak] - prom.Value*relHeight

	i := peak
	for prom.LeftBase < i && height < x[i] {
		i--
	}
	left := float64(i)
	if x[i] < height {
		left += (height - x[i]) / (x[i+1] - x[i])
	}

	i = peak
	for i < prom.RightBase && height < x[i] {
		i++
	}
	right := float64(i)
	if x[i] < height {
		right -= (height - x[i]) / (x[i-1] - x[i])
	}

	return right - left
}
