package signal

import "math"

// Map re-maps v from [inLo, inHi] to [outLo, outHi] without clamping.
// A degenerate input range maps everything to outLo.
func Map(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	return outLo + (v-inLo)/(inHi-inLo)*(outHi-outLo)
}

// Constrain limits v to the range spanned by a and b, in either order.
// NaN maps to the low end.
func Constrain(v, a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
