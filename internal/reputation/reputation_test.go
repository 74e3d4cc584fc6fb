package reputation

import (
	"math"
	"testing"
)

func TestCreditScore(t *testing.T) {
	tests := []struct {
		name    string
		ratings []float64
		want    int
	}{
		{name: "newcomer", ratings: nil, want: 50},
		{name: "empty slice", ratings: []float64{}, want: 50},
		{name: "all fives", ratings: []float64{5, 5, 5}, want: 100},
		{name: "single one", ratings: []float64{1}, want: 20},
		{name: "mixed", ratings: []float64{4, 5}, want: 90},
		{name: "three", ratings: []float64{3}, want: 60},
		{name: "half rounds to even", ratings: []float64{2, 2, 2, 2.5}, want: 42},
		{name: "above range clamps", ratings: []float64{7}, want: 100},
		{name: "below range clamps", ratings: []float64{-3}, want: 0},
		{name: "nan ignored", ratings: []float64{math.NaN(), 5}, want: 100},
		{name: "only non-finite", ratings: []float64{math.Inf(1), math.Inf(-1)}, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CreditScore(tt.ratings); got != tt.want {
				t.Fatalf("CreditScore(%v) = %d, want %d", tt.ratings, got, tt.want)
			}
		})
	}
}

func TestCreditScoreMonotonic(t *testing.T) {
	prev := -1
	for avg := 1.0; avg <= 5.0; avg += 0.05 {
		got := CreditScore([]float64{avg})
		if got < prev {
			t.Fatalf("score decreased at avg %.2f: %d < %d", avg, got, prev)
		}
		prev = got
	}
}
