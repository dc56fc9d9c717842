package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandScore(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		want    float64
	}{
		{"perfect score", 40, 9.0},
		{"band nine floor", 39, 9.0},
		{"just below band nine", 38, 8.5},
		{"band eight point five floor", 37, 8.5},
		{"band eight floor", 35, 8.0},
		{"band seven point five floor", 32, 7.5},
		{"band seven floor", 30, 7.0},
		{"band six point five floor", 26, 6.5},
		{"band six floor", 23, 6.0},
		{"band five point five floor", 18, 5.5},
		{"band five ceiling", 17, 5.0},
		{"band five floor", 16, 5.0},
		{"band four point five floor", 13, 4.5},
		{"band four floor", 10, 4.0},
		{"just below scale", 9, 0.0},
		{"zero correct", 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BandScore(tt.correct))
		})
	}
}

func TestBandScoreMonotonic(t *testing.T) {
	prev := BandScore(0)
	for correct := 1; correct <= totalQuestions; correct++ {
		score := BandScore(correct)
		assert.GreaterOrEqual(t, score, prev, "score dropped at %d correct", correct)
		prev = score
	}
}
