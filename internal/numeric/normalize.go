package numeric

import "math"

// WeightedPart pairs a normalized value in [0,1] with its weight. Weights for
// a given score are fixed constants summing to 1.0; callers choose the caps.
type WeightedPart struct {
	Value  float64
	Weight float64
}

// Normalize scales value against cap into [0,1]. A zero or negative cap
// yields 0 rather than dividing by zero. Values above the cap saturate at 1.
func Normalize(value, cap float64) float64 {
	if cap <= 0 {
		return 0
	}
	return math.Min(value/cap, 1)
}

// WeightedScore combines normalized parts into a 0-100 integer score:
// round(sum(value*weight) * 100), clamped to [0,100]. Inputs are clamped,
// never rejected.
func WeightedScore(parts []WeightedPart) int {
	sum := 0.0
	for _, p := range parts {
		sum += Clamp(p.Value, 0, 1) * p.Weight
	}
	return int(Clamp(math.Round(sum*100), 0, 100))
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClampScore bounds an integer score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RoundPct converts a ratio in [0,1] to a rounded 0-100 integer.
func RoundPct(ratio float64) int {
	return ClampScore(int(math.Round(Clamp(ratio, 0, 1) * 100)))
}
