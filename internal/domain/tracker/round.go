package tracker

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimal places used when publishing derived stats.
const (
	RatePlaces    = 3
	RunDiffPlaces = 2
	PitchPlaces   = 2
)

// Round rounds x half away from zero at the given decimal places, working on
// the shortest decimal representation of x so 0.2345 rounds to 0.235.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
