package scoring

import "github.com/wonny/aurum/internal/contracts"

// Weights is one strategy's factor weight table. Values are percentages
// and always sum to 100.
type Weights struct {
	Value    float64
	Quality  float64
	Risk     float64
	Growth   float64
	Momentum float64
}

// Sum returns the weight total; 100 for every valid table.
func (w Weights) Sum() float64 {
	return w.Value + w.Quality + w.Risk + w.Growth + w.Momentum
}

// WeightsFor returns the factor weight table for a strategy. Unknown
// strategies fall back to balanced.
func WeightsFor(strategy contracts.Strategy) Weights {
	switch strategy {
	case contracts.StrategyValue:
		return Weights{Value: 40, Quality: 30, Risk: 15, Growth: 10, Momentum: 5}
	case contracts.StrategyGrowth:
		return Weights{Value: 15, Quality: 20, Risk: 10, Growth: 40, Momentum: 15}
	default:
		return Weights{Value: 25, Quality: 25, Risk: 20, Growth: 20, Momentum: 10}
	}
}
