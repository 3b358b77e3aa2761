package conviction

import "github.com/wonny/aurum/internal/contracts"

// highRiskFigure is the parsed raw risk level (out of 10) at which the
// position size suggestion is stepped down.
const highRiskFigure = 7.0

// positionSize returns the (suggested, max) portfolio weight percentages
// for a conviction level. When the parsed raw risk is at or above
// highRiskFigure both figures drop by 2 points; the suggestion floors at 0
// and the cap at 2.
func positionSize(level contracts.ConvictionLevel, rawRisk *float64) (suggested, max float64) {
	switch level {
	case contracts.ConvictionVeryHigh:
		suggested, max = 8, 10
	case contracts.ConvictionHigh:
		suggested, max = 6, 8
	case contracts.ConvictionModerate:
		suggested, max = 4, 6
	case contracts.ConvictionLow:
		suggested, max = 2, 4
	default:
		suggested, max = 0, 2
	}

	if rawRisk != nil && *rawRisk >= highRiskFigure {
		suggested -= 2
		if suggested < 0 {
			suggested = 0
		}
		max -= 2
		if max < 2 {
			max = 2
		}
	}

	return suggested, max
}
