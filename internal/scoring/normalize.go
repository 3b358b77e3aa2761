package scoring

// Neutral is the score assigned to any sub-component whose input metric is
// missing. Scoring never fails on absent data.
const Neutral = 50.0

// Normalize clamps value to [min, max] and maps it linearly to [0, 100].
// With invert=true lower inputs score higher (used for metrics where lower
// is better, e.g. P/E or beta).
func Normalize(value, min, max float64, invert bool) float64 {
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}

	score := (value - min) / (max - min) * 100

	if invert {
		score = 100 - score
	}

	return score
}
