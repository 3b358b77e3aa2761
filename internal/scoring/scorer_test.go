package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func TestWeightsFor_SumTo100(t *testing.T) {
	for _, strategy := range []contracts.Strategy{
		contracts.StrategyValue,
		contracts.StrategyGrowth,
		contracts.StrategyBalanced,
	} {
		w := WeightsFor(strategy)
		assert.InDelta(t, 100.0, w.Sum(), 1e-9, "weights for %s", strategy)
	}
}

func TestScorer_MissingMetricsScoreNeutral(t *testing.T) {
	scorer := NewScorer(logger.NewNop())

	result := scorer.Score(&contracts.Candidate{Ticker: "EMPT"}, contracts.StrategyBalanced)

	// Everything neutral except value, where a missing P/E is penalized to
	// 20 rather than defaulted.
	assert.InDelta(t, 20*0.5+Neutral*0.3+Neutral*0.2, result.Value, 1e-9)
	assert.InDelta(t, Neutral, result.Quality, 1e-9)
	assert.InDelta(t, Neutral, result.Risk, 1e-9)
	assert.InDelta(t, Neutral, result.Growth, 1e-9)
	assert.InDelta(t, Neutral, result.Momentum, 1e-9)
}

func TestScorer_ValueScore(t *testing.T) {
	scorer := NewScorer(logger.NewNop())

	tests := []struct {
		name    string
		metrics contracts.MetricSnapshot
		want    float64
	}{
		{
			name: "missing pe with pb and dividend",
			metrics: contracts.MetricSnapshot{
				PB:            ptr(2.0),
				DividendYield: ptr(3.0),
			},
			// pe missing -> 20 at half weight; pb 2.0 inverted over
			// [0.5,10]; dividend 3% over [0,6]
			want: 20*0.5 + Normalize(2.0, 0.5, 10, true)*0.3 + 50*0.2,
		},
		{
			name:    "loss maker pe",
			metrics: contracts.MetricSnapshot{PE: ptr(-4.0)},
			want:    10*0.5 + Neutral*0.3 + Neutral*0.2,
		},
		{
			name:    "cheap pe scores high",
			metrics: contracts.MetricSnapshot{PE: ptr(5.0)},
			want:    100*0.5 + Neutral*0.3 + Neutral*0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(&contracts.Candidate{Ticker: "T", Metrics: tt.metrics}, contracts.StrategyValue)
			assert.InDelta(t, tt.want, result.Value, 1e-9)
		})
	}
}

func TestScorer_CurrentRatioBands(t *testing.T) {
	// Below 1 the normalized score is halved; above 3 it flattens to 70.
	tests := []struct {
		name string
		cr   float64
		want float64
	}{
		{"illiquid penalized hard", 0.5, 25},
		{"healthy band", 1.5, 50},
		{"hoarding capital flat", 4.0, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := currentRatioScore(&tt.cr)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScorer_TotalWeighting(t *testing.T) {
	scorer := NewScorer(logger.NewNop())

	candidate := &contracts.Candidate{
		Ticker: "ACME",
		Metrics: contracts.MetricSnapshot{
			PE:            ptr(12.0),
			PB:            ptr(1.8),
			DividendYield: ptr(2.5),
			ProfitMargin:  ptr(18.0),
			ROE:           ptr(22.0),
			CurrentRatio:  ptr(1.8),
			Beta:          ptr(0.9),
			RevenueGrowth: ptr(14.0),
			EPSGrowth:     ptr(20.0),
			Change52W:     ptr(25.0),
		},
	}

	for _, strategy := range []contracts.Strategy{
		contracts.StrategyValue,
		contracts.StrategyGrowth,
		contracts.StrategyBalanced,
	} {
		result := scorer.Score(candidate, strategy)
		w := WeightsFor(strategy)
		want := (result.Value*w.Value + result.Quality*w.Quality + result.Risk*w.Risk +
			result.Growth*w.Growth + result.Momentum*w.Momentum) / 100
		assert.InDelta(t, want, result.Total, 1e-9, "strategy %s", strategy)
		assert.GreaterOrEqual(t, result.Total, 0.0)
		assert.LessOrEqual(t, result.Total, 100.0)
	}
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(logger.NewNop())

	candidate := &contracts.Candidate{
		Ticker:  "SAME",
		Metrics: contracts.MetricSnapshot{PE: ptr(15.0), Beta: ptr(1.2)},
	}

	first := scorer.Score(candidate, contracts.StrategyGrowth)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(candidate, contracts.StrategyGrowth))
	}
}
