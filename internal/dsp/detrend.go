package dsp

import (
	"slices"
)

// Detrend removes a piecewise linear least squares trend from x. The
// breakpoints split x into segments [bp[m], bp[m+1]); 0 and len(x) are
// always added.
func Detrend(x []float64, breakpoints []int) []float64 {
	n := len(x)
	bp := append([]int{0}, breakpoints...)
	bp = append(bp, n)
	slices.Sort(bp)
	bp = slices.Compact(bp)

	out := slices.Clone(x)
	for m := 0; m+1 < len(bp); m++ {
		lo, hi := bp[m], bp[m+1]
		if lo < 0 || hi > n || hi <= lo {
			continue
		}
		segment := x[lo:hi]
		slope, intercept := lineFit(segment)
		for i := range segment {
			out[lo+i] = segment[i] - (intercept + slope*float64(i))
		}
	}
	return out
}

// LinspaceInt truncates count evenly spaced points over [lo, hi] to ints.
func LinspaceInt(lo, hi float64, count int) []int {
	if count <= 0 {
		return nil
	}
	out := make([]int, count)
	if count == 1 {
		out[0] = int(lo)
		return out
	}
	step := (hi - lo) / float64(count-1)
	for i := range count {
		out[i] = int(lo + float64(i)*step)
	}
	out[count-1] = int(hi)
	return out
}
