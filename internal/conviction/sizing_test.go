package conviction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aurum/internal/contracts"
)

func TestPositionSize_Levels(t *testing.T) {
	tests := []struct {
		level         contracts.ConvictionLevel
		suggested, mx float64
	}{
		{contracts.ConvictionVeryHigh, 8, 10},
		{contracts.ConvictionHigh, 6, 8},
		{contracts.ConvictionModerate, 4, 6},
		{contracts.ConvictionLow, 2, 4},
		{contracts.ConvictionVeryLow, 0, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			suggested, mx := positionSize(tt.level, nil)
			assert.InDelta(t, tt.suggested, suggested, 1e-9)
			assert.InDelta(t, tt.mx, mx, 1e-9)
		})
	}
}

func TestPositionSize_HighRiskReduction(t *testing.T) {
	risk := 8.0

	suggested, mx := positionSize(contracts.ConvictionVeryHigh, &risk)
	assert.InDelta(t, 6.0, suggested, 1e-9)
	assert.InDelta(t, 8.0, mx, 1e-9)

	// Floors: the suggestion cannot go negative and the cap never drops
	// below 2.
	suggested, mx = positionSize(contracts.ConvictionVeryLow, &risk)
	assert.InDelta(t, 0.0, suggested, 1e-9)
	assert.InDelta(t, 2.0, mx, 1e-9)

	suggested, mx = positionSize(contracts.ConvictionLow, &risk)
	assert.InDelta(t, 0.0, suggested, 1e-9)
	assert.InDelta(t, 2.0, mx, 1e-9)
}

func TestPositionSize_RiskBelowThresholdUntouched(t *testing.T) {
	risk := 6.9

	suggested, mx := positionSize(contracts.ConvictionHigh, &risk)
	assert.InDelta(t, 6.0, suggested, 1e-9)
	assert.InDelta(t, 8.0, mx, 1e-9)
}
