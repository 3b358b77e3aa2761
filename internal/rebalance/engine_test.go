package rebalance

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/conviction"
	"github.com/wonny/aurum/internal/scoring"
	"github.com/wonny/aurum/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

// fakeMetrics serves canned candidates; tickers without an entry fail.
type fakeMetrics struct {
	candidates map[string]*contracts.Candidate
}

func (f *fakeMetrics) Snapshot(_ context.Context, ticker string) (*contracts.Candidate, error) {
	c, ok := f.candidates[ticker]
	if !ok {
		return nil, fmt.Errorf("quote unavailable for %s", ticker)
	}
	return c, nil
}

// noAnalyst errors on every call so synthesis runs on neutral defaults.
type noAnalyst struct{}

func (noAnalyst) Analyze(_ context.Context, ticker string, _ contracts.AnalysisKind) (string, error) {
	return "", fmt.Errorf("analysis unavailable for %s", ticker)
}

func newTestEngine(config Config, candidates map[string]*contracts.Candidate) *Engine {
	log := logger.NewNop()
	synth := conviction.NewSynthesizer(conviction.DefaultConfig(), noAnalyst{}, conviction.NewRegexExtractor(), log)
	return NewEngine(config, &fakeMetrics{candidates: candidates}, scoring.NewScorer(log), synth, log)
}

func TestClassify_Rules(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	tests := []struct {
		name   string
		review contracts.HoldingReview
		want   contracts.RebalanceAction
	}{
		{
			name:   "conviction collapse sells",
			review: contracts.HoldingReview{NewConviction: 38, PreviousConviction: 65, WeightPct: 5},
			want:   contracts.ActionSell,
		},
		{
			name:   "soft conviction trims",
			review: contracts.HoldingReview{NewConviction: 48, WeightPct: 5},
			want:   contracts.ActionTrim,
		},
		{
			name:   "overweight without conviction trims",
			review: contracts.HoldingReview{NewConviction: 62, WeightPct: 12},
			want:   contracts.ActionTrim,
		},
		{
			name:   "overweight with conviction holds",
			review: contracts.HoldingReview{NewConviction: 75, WeightPct: 12},
			want:   contracts.ActionHold,
		},
		{
			name:   "underweight with conviction adds",
			review: contracts.HoldingReview{NewConviction: 75, WeightPct: 1},
			want:   contracts.ActionAdd,
		},
		{
			name:   "underweight without conviction holds",
			review: contracts.HoldingReview{NewConviction: 62, WeightPct: 1},
			want:   contracts.ActionHold,
		},
		{
			name:   "in-band holds",
			review: contracts.HoldingReview{NewConviction: 60, WeightPct: 5},
			want:   contracts.ActionHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, reasoning := e.classify(&tt.review)
			assert.Equal(t, tt.want, action)
			assert.NotEmpty(t, reasoning)
		})
	}
}

func TestClassify_SellReasoningCitesThreshold(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	review := contracts.HoldingReview{NewConviction: 38, PreviousConviction: 65, WeightPct: 5}
	action, reasoning := e.classify(&review)

	assert.Equal(t, contracts.ActionSell, action)
	assert.Equal(t, "Conviction 38.0 fell below sell threshold 40.0 (was 65.0)", reasoning)
}

func TestReview_RepricesAndWeighs(t *testing.T) {
	candidates := map[string]*contracts.Candidate{
		"UP": {
			Ticker: "UP",
			Sector: "Tech",
			Metrics: contracts.MetricSnapshot{
				Beta:  ptr(0.5),
				Price: ptr(100.0),
			},
		},
	}
	e := newTestEngine(DefaultConfig(), candidates)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 9000}
	holdings := []contracts.Holding{
		{PortfolioID: "main", Ticker: "UP", Sector: "Tech", Shares: 10, CurrentPrice: 90, LastConviction: 65},
	}

	reviews := e.Review(context.Background(), portfolio, holdings, contracts.StrategyBalanced)
	require.Len(t, reviews, 1)

	r := reviews[0]
	assert.InDelta(t, 100.0, r.CurrentPrice, 1e-9, "fresh quote replaces the stored price")
	assert.InDelta(t, 10.0, r.WeightPct, 1e-9, "1000 of 10000 total value")
	assert.InDelta(t, r.NewConviction-65, r.ConvictionDelta, 1e-9)
	assert.NotEmpty(t, r.Reasoning)
}

func TestReview_FetchFailureKeepsStoredPrice(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 500}
	holdings := []contracts.Holding{
		{PortfolioID: "main", Ticker: "GONE", Sector: "Tech", Shares: 5, CurrentPrice: 100, LastConviction: 60},
	}

	reviews := e.Review(context.Background(), portfolio, holdings, contracts.StrategyBalanced)
	require.Len(t, reviews, 1)

	assert.InDelta(t, 100.0, reviews[0].CurrentPrice, 1e-9)
	assert.InDelta(t, 50.0, reviews[0].WeightPct, 1e-9, "500 of 1000 total value")
}

func TestPlan_FiltersCandidates(t *testing.T) {
	candidates := map[string]*contracts.Candidate{
		"NEW": {Ticker: "NEW", Sector: "Tech", Metrics: contracts.MetricSnapshot{Price: ptr(50.0)}},
	}
	e := newTestEngine(DefaultConfig(), candidates)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 10000}

	replacements := []contracts.ConvictionResult{
		{Ticker: "NEW", Sector: "Tech", Conviction: 72, Level: contracts.ConvictionHigh, SuggestedWeightPct: 6},
		{Ticker: "WEAK", Sector: "Tech", Conviction: 60, Level: contracts.ConvictionModerate, SuggestedWeightPct: 4},
	}

	plan := e.Plan(context.Background(), "run-1", portfolio, nil, contracts.StrategyBalanced, replacements)

	// Only NEW clears the 65 buy threshold.
	require.Len(t, plan.NewCandidates, 1)
	assert.Equal(t, "NEW", plan.NewCandidates[0].Ticker)

	require.Len(t, plan.Trades, 1)
	trade := plan.Trades[0]
	assert.Equal(t, contracts.SideBuy, trade.Side)
	assert.InDelta(t, 600.0, trade.Value, 1e-9, "6% of the 10000 portfolio")
	assert.InDelta(t, 12.0, trade.Shares, 1e-9)
}

func TestPlan_HeldTickerNotRebought(t *testing.T) {
	candidates := map[string]*contracts.Candidate{
		"HELD": {Ticker: "HELD", Sector: "Tech", Metrics: contracts.MetricSnapshot{Beta: ptr(0.5), Price: ptr(100.0)}},
	}
	e := newTestEngine(DefaultConfig(), candidates)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 9000}
	holdings := []contracts.Holding{
		{PortfolioID: "main", Ticker: "HELD", Sector: "Tech", Shares: 10, CurrentPrice: 100, LastConviction: 60},
	}

	replacements := []contracts.ConvictionResult{
		{Ticker: "HELD", Sector: "Tech", Conviction: 90, SuggestedWeightPct: 8},
	}

	plan := e.Plan(context.Background(), "run-1", portfolio, holdings, contracts.StrategyBalanced, replacements)
	assert.Empty(t, plan.NewCandidates)
}
