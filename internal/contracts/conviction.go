package contracts

// ConvictionLevel is the ordinal bucket a conviction score falls into.
type ConvictionLevel string

const (
	ConvictionVeryHigh ConvictionLevel = "VERY_HIGH"
	ConvictionHigh     ConvictionLevel = "HIGH"
	ConvictionModerate ConvictionLevel = "MODERATE"
	ConvictionLow      ConvictionLevel = "LOW"
	ConvictionVeryLow  ConvictionLevel = "VERY_LOW"
)

// LevelForScore maps a 0..100 conviction score to its level bucket.
// Lower bounds are inclusive.
func LevelForScore(score float64) ConvictionLevel {
	switch {
	case score >= 80:
		return ConvictionVeryHigh
	case score >= 65:
		return ConvictionHigh
	case score >= 50:
		return ConvictionModerate
	case score >= 35:
		return ConvictionLow
	default:
		return ConvictionVeryLow
	}
}

// ConvictionResult is the tier-3 output for one candidate: five component
// scores, the blended upside, the weighted conviction score with its level,
// and the position-size suggestion.
type ConvictionResult struct {
	Ticker   string   `json:"ticker"`
	Sector   string   `json:"sector"`
	Strategy Strategy `json:"strategy"`

	Valuation float64 `json:"valuation"`
	Sentiment float64 `json:"sentiment"`
	Risk      float64 `json:"risk"` // higher = safer
	Earnings  float64 `json:"earnings"`
	Quality   float64 `json:"quality"`

	// CompositeUpside is the blended DCF/peer implied gain in percent,
	// nil when neither analysis produced a figure.
	CompositeUpside *float64 `json:"composite_upside,omitempty"`

	Conviction float64         `json:"conviction"`
	Level      ConvictionLevel `json:"level"`

	// SuggestedWeightPct / MaxWeightPct are portfolio percentages.
	SuggestedWeightPct float64 `json:"suggested_weight_pct"`
	MaxWeightPct       float64 `json:"max_weight_pct"`

	BullFactors []string `json:"bull_factors,omitempty"`
	BearFactors []string `json:"bear_factors,omitempty"`
	RiskFactors []string `json:"risk_factors,omitempty"`

	Reasoning string `json:"reasoning"`
}
