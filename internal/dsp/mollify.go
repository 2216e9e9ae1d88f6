package dsp

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// mollifierMass is the integral of exp(1/(x²-1)) over (-1, 1).
var mollifierMass = quad.Fixed(bump, -1, 1, 200, quad.Legendre{}, 0)

func bump(x float64) float64 {
	if math.Abs(x) >= 1 {
		return 0
	}
	return math.Exp(1 / (x*x - 1))
}

// Mollify smooths position, sampled at the evenly spaced times, by
// convolving it with the unit-mass bump kernel of the given width. The
// boundaries are padded by edge replication for one kernel width and the
// signal is resampled refinement times finer before convolution. The
// returned curve excludes the padding.
func Mollify(times, position []float64, refinement int, width float64) []float64 {
	n := len(position)
	delta := (times[n-1] - times[0]) / float64(n-1)

	leftPad := int(math.Ceil((times[0]-(width+delta)-times[0])/(-delta))) - 1
	rightPad := int(math.Ceil((times[n-1]+(width+delta)-times[n-1])/delta)) - 1

	padded := make([]float64, 0, leftPad+n+rightPad)
	paddedPos := make([]float64, 0, leftPad+n+rightPad)
	for k := leftPad; k >= 1; k-- {
		padded = append(padded, times[0]+float64(k)*(-delta))
		paddedPos = append(paddedPos, position[0])
	}
	padded = append(padded, times...)
	paddedPos = append(paddedPos, position...)
	for k := 1; k <= rightPad; k++ {
		padded = append(padded, times[n-1]+float64(k)*delta)
		paddedPos = append(paddedPos, position[n-1])
	}

	fine := refinement * len(padded)
	s := make([]float64, fine)
	lo, hi := padded[0], padded[len(padded)-1]
	ds := (hi - lo) / float64(fine-1)
	for i := range s {
		s[i] = lo + float64(i)*ds
	}
	s[fine-1] = hi

	interp := Interp(s, padded, paddedPos)
	for i := range interp {
		interp[i] *= ds
	}

	center := (s[0] + s[fine-1]) / 2
	rho := make([]float64, fine)
	for i, v := range s {
		p := math.Abs((v - center) / width)
		if p < 1 {
			rho[i] = math.Exp(1/(p*p-1)) / mollifierMass / width
		}
	}

	smooth := ConvolveSame(interp, rho)
	return smooth[refinement*leftPad : fine-refinement*rightPad]
}
