package conviction

import "github.com/wonny/aurum/internal/contracts"

// Weights is one strategy's conviction component weight table, in
// percentages summing to 100.
type Weights struct {
	Valuation float64
	Sentiment float64
	Risk      float64
	Earnings  float64
	Quality   float64
}

// Sum returns the weight total; 100 for every valid table.
func (w Weights) Sum() float64 {
	return w.Valuation + w.Sentiment + w.Risk + w.Earnings + w.Quality
}

// WeightsFor returns the conviction weight table for a strategy. Unknown
// strategies fall back to balanced.
func WeightsFor(strategy contracts.Strategy) Weights {
	switch strategy {
	case contracts.StrategyValue:
		return Weights{Valuation: 35, Sentiment: 10, Risk: 20, Earnings: 15, Quality: 20}
	case contracts.StrategyGrowth:
		return Weights{Valuation: 20, Sentiment: 15, Risk: 15, Earnings: 25, Quality: 25}
	default:
		return Weights{Valuation: 25, Sentiment: 15, Risk: 20, Earnings: 20, Quality: 20}
	}
}
