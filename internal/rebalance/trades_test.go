package rebalance

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurum/internal/contracts"
)

func TestBuildTrades_SellFreesFullPosition(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 1000}
	reviews := []contracts.HoldingReview{
		{Ticker: "OUT", Sector: "Tech", Shares: 10, CurrentPrice: 50, Action: contracts.ActionSell, Reasoning: "sell"},
	}

	plan := &contracts.RebalancePlan{PortfolioID: "main"}
	e.buildTrades(context.Background(), plan, portfolio, reviews)

	assert.InDelta(t, 1500.0, plan.PortfolioValue, 1e-9)
	require.Len(t, plan.Trades, 1)

	trade := plan.Trades[0]
	assert.Equal(t, contracts.SideSell, trade.Side)
	assert.InDelta(t, 10.0, trade.Shares, 1e-9)
	assert.InDelta(t, 500.0, trade.Value, 1e-9)

	// Freed cash plus starting cash, reserve included.
	assert.InDelta(t, 1500.0, plan.RemainingCash, 1e-9)
	assert.InDelta(t, 500.0/1500.0*100, plan.TurnoverPct, 1e-9)
}

func TestBuildTrades_SellCapDefersLowestPriority(t *testing.T) {
	config := DefaultConfig()
	config.MaxSellsPerReview = 2
	e := newTestEngine(config, nil)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 0}
	reviews := make([]contracts.HoldingReview, 0, 3)
	for i, conviction := range []float64{30, 20, 35} {
		reviews = append(reviews, contracts.HoldingReview{
			Ticker:        fmt.Sprintf("S%d", i),
			Sector:        "Tech",
			Shares:        1,
			CurrentPrice:  100,
			NewConviction: conviction,
			Action:        contracts.ActionSell,
		})
	}

	plan := &contracts.RebalancePlan{PortfolioID: "main"}
	e.buildTrades(context.Background(), plan, portfolio, reviews)

	// Lowest conviction exits first; the third sell is deferred.
	require.Len(t, plan.Trades, 2)
	assert.Equal(t, "S1", plan.Trades[0].Ticker)
	assert.Equal(t, "S0", plan.Trades[1].Ticker)
}

func TestBuildTrades_TrimTargetsReducedWeight(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	// 12% position against a 10% cap trims to 8% (0.8 * cap).
	portfolio := &contracts.Portfolio{ID: "main", Cash: 8800}
	reviews := []contracts.HoldingReview{
		{Ticker: "FAT", Sector: "Tech", Shares: 12, CurrentPrice: 100, WeightPct: 12, Action: contracts.ActionTrim, Reasoning: "trim"},
	}

	plan := &contracts.RebalancePlan{PortfolioID: "main"}
	e.buildTrades(context.Background(), plan, portfolio, reviews)

	require.Len(t, plan.Trades, 1)
	trade := plan.Trades[0]
	assert.Equal(t, contracts.SideSell, trade.Side)
	assert.InDelta(t, 4.0, trade.Shares, 1e-9, "4% of the 10000 value at 100/share")
	assert.InDelta(t, 400.0, trade.Value, 1e-9)
}

func TestBuildTrades_TrimNeverSellsMoreThanHeld(t *testing.T) {
	config := DefaultConfig()
	config.MaxPositionPct = 1 // trim target far below the position
	e := newTestEngine(config, nil)

	// The stale weight overstates the position after a price drop, so the
	// raw trim size exceeds the shares actually held.
	portfolio := &contracts.Portfolio{ID: "main", Cash: 0}
	reviews := []contracts.HoldingReview{
		{Ticker: "ALL", Sector: "Tech", Shares: 5, CurrentPrice: 100, WeightPct: 150, Action: contracts.ActionTrim},
	}

	plan := &contracts.RebalancePlan{PortfolioID: "main"}
	e.buildTrades(context.Background(), plan, portfolio, reviews)

	require.Len(t, plan.Trades, 1)
	assert.InDelta(t, 5.0, plan.Trades[0].Shares, 1e-9)
}

func TestBuildTrades_AddTopsUpUnderweight(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	// 1% position tops up toward 3% (1.5 * min weight).
	portfolio := &contracts.Portfolio{ID: "main", Cash: 990}
	reviews := []contracts.HoldingReview{
		{Ticker: "THIN", Sector: "Tech", Shares: 0.5, CurrentPrice: 20, WeightPct: 1, Action: contracts.ActionAdd, Reasoning: "add"},
	}

	plan := &contracts.RebalancePlan{PortfolioID: "main"}
	e.buildTrades(context.Background(), plan, portfolio, reviews)

	require.Len(t, plan.Trades, 1)
	trade := plan.Trades[0]
	assert.Equal(t, contracts.SideBuy, trade.Side)
	assert.InDelta(t, 20.0, trade.Value, 1e-9, "2% of the 1000 value")
	assert.InDelta(t, 1.0, trade.Shares, 1e-9)
}

func TestBuildTrades_BuysBoundedByCashAndCap(t *testing.T) {
	prices := map[string]*contracts.Candidate{
		"B1": {Ticker: "B1", Sector: "Tech", Metrics: contracts.MetricSnapshot{Price: ptr(10.0)}},
		"B2": {Ticker: "B2", Sector: "Tech", Metrics: contracts.MetricSnapshot{Price: ptr(10.0)}},
		"B3": {Ticker: "B3", Sector: "Tech", Metrics: contracts.MetricSnapshot{Price: ptr(10.0)}},
	}
	e := newTestEngine(DefaultConfig(), prices)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 1000}

	plan := &contracts.RebalancePlan{
		PortfolioID: "main",
		NewCandidates: []contracts.ConvictionResult{
			{Ticker: "B2", Sector: "Tech", Conviction: 70, SuggestedWeightPct: 60},
			{Ticker: "B1", Sector: "Tech", Conviction: 85, SuggestedWeightPct: 60},
			{Ticker: "B3", Sector: "Tech", Conviction: 68, SuggestedWeightPct: 60},
		},
	}
	e.buildTrades(context.Background(), plan, portfolio, nil)

	// Two buys max: highest conviction first at full size, the second
	// capped by remaining cash after the reserve.
	require.Len(t, plan.Trades, 2)

	assert.Equal(t, "B1", plan.Trades[0].Ticker)
	assert.InDelta(t, 600.0, plan.Trades[0].Value, 1e-9)

	assert.Equal(t, "B2", plan.Trades[1].Ticker)
	assert.InDelta(t, 350.0, plan.Trades[1].Value, 1e-9, "remaining cash after the 5% reserve")

	assert.InDelta(t, 50.0, plan.RemainingCash, 1e-9)
}

func TestBuildTrades_BuyWithoutPriceSkipped(t *testing.T) {
	prices := map[string]*contracts.Candidate{
		"OK": {Ticker: "OK", Sector: "Tech", Metrics: contracts.MetricSnapshot{Price: ptr(25.0)}},
	}
	e := newTestEngine(DefaultConfig(), prices)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 1000}

	plan := &contracts.RebalancePlan{
		PortfolioID: "main",
		NewCandidates: []contracts.ConvictionResult{
			{Ticker: "DARK", Sector: "Tech", Conviction: 90, SuggestedWeightPct: 8},
			{Ticker: "OK", Sector: "Tech", Conviction: 70, SuggestedWeightPct: 8},
		},
	}
	e.buildTrades(context.Background(), plan, portfolio, nil)

	require.Len(t, plan.Trades, 1)
	assert.Equal(t, "OK", plan.Trades[0].Ticker)
}

func TestBuildTrades_NoActionsNoTrades(t *testing.T) {
	e := newTestEngine(DefaultConfig(), nil)

	portfolio := &contracts.Portfolio{ID: "main", Cash: 500}
	reviews := []contracts.HoldingReview{
		{Ticker: "KEEP", Sector: "Tech", Shares: 5, CurrentPrice: 100, WeightPct: 50, Action: contracts.ActionHold},
	}

	plan := &contracts.RebalancePlan{PortfolioID: "main"}
	e.buildTrades(context.Background(), plan, portfolio, reviews)

	assert.Empty(t, plan.Trades)
	assert.InDelta(t, 0.0, plan.TurnoverPct, 1e-9)
	assert.InDelta(t, 500.0, plan.RemainingCash, 1e-9)
}
