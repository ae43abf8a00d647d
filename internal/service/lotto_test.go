package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrizeMultiplierTiers(t *testing.T) {
	tests := []struct {
		name       string
		matchShare float64
		want       float64
	}{
		{"jackpot", 1.0, 1000},
		{"five of six", 5.0 / 6.0, 250},
		{"four of six", 4.0 / 6.0, 62.5},
		{"three of six", 3.0 / 6.0, 30},
		{"two of six", 2.0 / 6.0, 5},
		{"one of six", 1.0 / 6.0, 0},
		{"no matches", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prizeMultiplier(tt.matchShare))
		})
	}
}

func TestPrizeMultiplierNeverNegative(t *testing.T) {
	for share := 0.0; share <= 1.0; share += 0.05 {
		assert.GreaterOrEqual(t, prizeMultiplier(share), 0.0, "share %f", share)
	}
}

func TestDrawMatchShareBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		share := drawMatchShare()
		assert.GreaterOrEqual(t, share, 0.0)
		assert.LessOrEqual(t, share, 1.0)
	}
}
