package mathx

import "golang.org/x/exp/constraints"

// Fraction returns where x sits in [lo, hi] as a value in [0, 1].
// x is clamped first; a degenerate range yields 0.
func Fraction[T constraints.Integer | constraints.Float](x, lo, hi T) float64 {
	if hi == lo {
		return 0
	}
	x = Clamp(x, lo, hi)
	if hi < lo {
		lo, hi = hi, lo
	}
	return float64(x-lo) / float64(hi-lo)
}

// Scale maps x in [lo, hi] linearly onto [0, span] and truncates.
// Inputs outside the range are clamped.
func Scale[T constraints.Integer | constraints.Float](x, lo, hi T, span int) int {
	return int(Fraction(x, lo, hi) * float64(span))
}
