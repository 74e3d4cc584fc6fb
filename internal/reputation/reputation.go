// Package reputation maps rating history to a credit score.
package reputation

import "math"

const (
	NewcomerScore = 50
	MinScore      = 0
	MaxScore      = 100
)

// CreditScore converts ratings on the 1..5 scale into a 0..100 score.
// A rating of 1 maps to 20 and 5 maps to 100. Halves round to even and the
// result is clamped to [MinScore, MaxScore] for out-of-range inputs.
// Non-finite ratings are ignored.
func CreditScore(ratings []float64) int {
	var sum float64
	var n int
	for _, r := range ratings {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		sum += r
		n++
	}
	if n == 0 {
		return NewcomerScore
	}
	avg := sum / float64(n)
	score := int(math.RoundToEven(20 + (avg-1)*20))
	return clamp(score)
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
