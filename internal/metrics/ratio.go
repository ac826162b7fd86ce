package metrics

import "math"

// ratio divides and clamps every undefined result to 0. A zero denominator
// means "no data", never an error.
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	r := numerator / denominator
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// growthRate is the percentage change from previous to current, 0 when
// previous is 0.
func growthRate(current, previous float64) float64 {
	return ratio(current-previous, previous) * 100
}
