package screener

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurum/internal/contracts"
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

// candidate builds a snapshot whose beta drives the risk score, giving
// controllable and distinct totals per ticker.
func candidate(ticker, sector string, beta float64) *contracts.Candidate {
	return &contracts.Candidate{
		Ticker:  ticker,
		Sector:  sector,
		Metrics: contracts.MetricSnapshot{Beta: ptr(beta)},
	}
}

func newTestScreener(config Config, candidates map[string]*contracts.Candidate) *BatchScreener {
	log := logger.NewNop()
	return NewBatchScreener(config, scoring.NewScorer(log), &fakeMetrics{candidates: candidates}, log)
}

func TestScreen_RanksAndFiltersByScore(t *testing.T) {
	config := DefaultConfig()
	config.MinScore = 45
	config.TargetCount = 10

	// Beta 0.5 / 1.25 / 2.0 give risk scores 100 / 50 / 0 and distinct
	// totals either side of the floor.
	candidates := map[string]*contracts.Candidate{
		"SAFE":  candidate("SAFE", "Tech", 0.5),
		"MID":   candidate("MID", "Tech", 1.25),
		"RISKY": candidate("RISKY", "Tech", 2.0),
	}
	screener := newTestScreener(config, candidates)

	result, err := screener.Screen(context.Background(), []string{"RISKY", "MID", "SAFE"}, contracts.StrategyBalanced, nil)
	require.NoError(t, err)

	require.NotEmpty(t, result.Selected)

	// Ranked descending by total.
	for i := 1; i < len(result.Selected); i++ {
		assert.GreaterOrEqual(t, result.Selected[i-1].Total, result.Selected[i].Total)
	}
	assert.Equal(t, "SAFE", result.Selected[0].Ticker)

	excludedLow := len(result.Scored) - len(result.Selected)
	assert.Equal(t, excludedLow, result.Excluded.LowScore)
	for _, sc := range result.Selected {
		assert.GreaterOrEqual(t, sc.Total, config.MinScore)
	}
}

func TestScreen_SectorCap(t *testing.T) {
	config := DefaultConfig()
	config.MinScore = 0
	config.TargetCount = 4
	config.MaxSectorPct = 0.25 // cap = ceil(4 * 0.25) = 1 per sector

	candidates := map[string]*contracts.Candidate{
		"T1": candidate("T1", "Tech", 0.5),
		"T2": candidate("T2", "Tech", 0.6),
		"T3": candidate("T3", "Tech", 0.7),
		"F1": candidate("F1", "Finance", 0.8),
	}
	screener := newTestScreener(config, candidates)

	result, err := screener.Screen(context.Background(), []string{"T1", "T2", "T3", "F1"}, contracts.StrategyBalanced, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.BySector["Tech"])
	assert.Equal(t, 1, result.BySector["Finance"])
	assert.Equal(t, 2, result.Excluded.SectorLimit)
}

func TestScreen_FetchFailureIsNotFatal(t *testing.T) {
	config := DefaultConfig()
	config.MinScore = 0

	candidates := map[string]*contracts.Candidate{
		"OK": candidate("OK", "Tech", 1.0),
	}
	screener := newTestScreener(config, candidates)

	result, err := screener.Screen(context.Background(), []string{"OK", "GONE", "ALSOGONE"}, contracts.StrategyBalanced, nil)
	require.NoError(t, err)

	assert.Len(t, result.Scored, 1)
	assert.Equal(t, 2, result.Excluded.FetchFailed)
	assert.ElementsMatch(t, []string{"GONE", "ALSOGONE"}, result.FailedTickers)
}

func TestScreen_TargetCountBoundsSelection(t *testing.T) {
	config := DefaultConfig()
	config.MinScore = 0
	config.TargetCount = 2
	config.MaxSectorPct = 1.0

	candidates := map[string]*contracts.Candidate{}
	universe := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ticker := fmt.Sprintf("T%d", i)
		candidates[ticker] = candidate(ticker, "Tech", 0.5+float64(i)*0.1)
		universe = append(universe, ticker)
	}
	screener := newTestScreener(config, candidates)

	result, err := screener.Screen(context.Background(), universe, contracts.StrategyBalanced, nil)
	require.NoError(t, err)

	assert.Len(t, result.Selected, 2)
}

func TestScreen_ProgressCoversUniverse(t *testing.T) {
	config := DefaultConfig()

	candidates := map[string]*contracts.Candidate{
		"A": candidate("A", "Tech", 1.0),
		"B": candidate("B", "Tech", 1.1),
	}
	screener := newTestScreener(config, candidates)

	var calls int
	progress := func(done, total int, ticker string) {
		calls++
		assert.Equal(t, 3, total)
	}

	_, err := screener.Screen(context.Background(), []string{"A", "B", "MISSING"}, contracts.StrategyBalanced, progress)
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "progress fires for failures too")
}

func TestSuggestWeights(t *testing.T) {
	selected := []contracts.ScoreResult{
		{Ticker: "HI", Total: 80},
		{Ticker: "LO", Total: 40},
	}

	weights := suggestWeights(selected)
	require.Len(t, weights, 2)

	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// 0.8/2 equal-weight base plus 20% score tilt.
	assert.InDelta(t, 0.4+0.2*80/120, weights["HI"], 1e-9)
	assert.InDelta(t, 0.4+0.2*40/120, weights["LO"], 1e-9)
	assert.Greater(t, weights["HI"], weights["LO"])
}

func TestSuggestWeights_Empty(t *testing.T) {
	assert.Empty(t, suggestWeights(nil))
}
