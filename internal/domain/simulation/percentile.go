package simulation

import "math"

type number interface {
	~int | ~int32 | ~int64 | ~float64
}

// Percentile returns the p-quantile of an ascending sample by linear
// interpolation between order statistics at rank h = (n-1)p. An empty sample
// yields zero.
func Percentile[T number](sorted []T, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	a, b := float64(sorted[lo]), float64(sorted[hi])
	return a + (h-float64(lo))*(b-a)
}
