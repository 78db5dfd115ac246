package tracker

import (
	"strconv"
	"strings"
)

const outsPerInning = 3

// ParseInnings converts upstream innings notation into outs recorded.
// "6.1" is six innings and one out (19 outs); "7" is 21 outs. The digit
// after the point counts outs and must be 0, 1 or 2. Anything else, including
// an empty string, yields (0, false).
func ParseInnings(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	whole, frac, hasFrac := strings.Cut(raw, ".")
	innings, err := strconv.Atoi(whole)
	if err != nil || innings < 0 {
		return 0, false
	}
	outs := 0
	if hasFrac {
		if len(frac) != 1 || frac[0] < '0' || frac[0] > '2' {
			return 0, false
		}
		outs = int(frac[0] - '0')
	}
	return innings*outsPerInning + outs, true
}

// InningsFromOuts converts outs into fractional innings (19 outs -> 6.333...).
func InningsFromOuts(outs int) float64 {
	return float64(outs) / outsPerInning
}
