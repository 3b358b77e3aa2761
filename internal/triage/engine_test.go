package triage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

// fakeResearch serves canned bundles per ticker and errors for the rest.
type fakeResearch struct {
	bundles map[string]*contracts.QualitativeBundle
}

func (f *fakeResearch) Bundle(_ context.Context, ticker string) (*contracts.QualitativeBundle, error) {
	b, ok := f.bundles[ticker]
	if !ok {
		return nil, fmt.Errorf("no research for %s", ticker)
	}
	return b, nil
}

func newTestEngine(bundles map[string]*contracts.QualitativeBundle) *Engine {
	return NewEngine(DefaultConfig(), &fakeResearch{bundles: bundles}, logger.NewNop())
}

func TestTriage_FastTrack(t *testing.T) {
	// Strong consensus and high target upside are both major greens.
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{
		"WIN": {
			Ticker:              "WIN",
			ConsensusBullishPct: ptr(80),
			TargetUpsidePct:     ptr(30),
		},
	})

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "WIN", Total: 75},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)

	v := verdicts[0]
	assert.Equal(t, contracts.DecisionFastTrack, v.Decision)
	assert.Equal(t, 2, v.MajorGreen())
	assert.Equal(t, 0, v.MajorRed())
}

func TestTriage_RejectOnUnoffsetMajorRed(t *testing.T) {
	// One major red, zero major green: rejected even with a decent score.
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{
		"BAD": {
			Ticker:              "BAD",
			ConsensusBearishPct: ptr(55),
		},
	})

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "BAD", Total: 48},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)

	assert.Equal(t, contracts.DecisionReject, verdicts[0].Decision)
	assert.Contains(t, verdicts[0].Reasoning, "unoffset major red flag")
}

func TestTriage_RejectOnTwoMajorReds(t *testing.T) {
	// Two major reds reject regardless of greens.
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{
		"DUMP": {
			Ticker:              "DUMP",
			ConsensusBearishPct: ptr(60),
			ShortInterestPct:    ptr(30),
			ConsensusBullishPct: ptr(85), // major green, still rejected
		},
	})

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "DUMP", Total: 90},
	})
	require.NoError(t, err)

	assert.Equal(t, contracts.DecisionReject, verdicts[0].Decision)
}

func TestTriage_PassNeedsNoMajorRed(t *testing.T) {
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{
		"OK": {Ticker: "OK", Beta: ptr(0.8)}, // minor green only
	})

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "OK", Total: 60},
	})
	require.NoError(t, err)

	assert.Equal(t, contracts.DecisionPass, verdicts[0].Decision)
}

func TestTriage_MixedSignalsNeedReview(t *testing.T) {
	// Below pass score, no major flags either way.
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{
		"MEH": {Ticker: "MEH"},
	})

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "MEH", Total: 50},
	})
	require.NoError(t, err)

	assert.Equal(t, contracts.DecisionNeedsReview, verdicts[0].Decision)
}

func TestTriage_FetchFailureRoutesToReview(t *testing.T) {
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{
		"OK": {Ticker: "OK"},
	})

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "GONE", Total: 80},
		{Ticker: "OK", Total: 60},
	})
	require.NoError(t, err, "one failed fetch must not fail the batch")
	require.Len(t, verdicts, 2)

	byTicker := map[string]contracts.TriageVerdict{}
	for _, v := range verdicts {
		byTicker[v.Ticker] = v
	}

	assert.Equal(t, contracts.DecisionNeedsReview, byTicker["GONE"].Decision)
	assert.Equal(t, contracts.DecisionPass, byTicker["OK"].Decision)
}

func TestTriage_SortsFastTrackFirst(t *testing.T) {
	bundles := map[string]*contracts.QualitativeBundle{
		"FAST": {Ticker: "FAST", ConsensusBullishPct: ptr(85), TargetUpsidePct: ptr(25)},
		"HIGH": {Ticker: "HIGH"},
		"LOW":  {Ticker: "LOW"},
	}
	engine := newTestEngine(bundles)

	verdicts, err := engine.Triage(context.Background(), []contracts.ScoreResult{
		{Ticker: "LOW", Total: 58},
		{Ticker: "HIGH", Total: 90},
		{Ticker: "FAST", Total: 72},
	})
	require.NoError(t, err)
	require.Len(t, verdicts, 3)

	// FAST_TRACK leads despite the lower tier-1 score, then score order.
	assert.Equal(t, "FAST", verdicts[0].Ticker)
	assert.Equal(t, "HIGH", verdicts[1].Ticker)
	assert.Equal(t, "LOW", verdicts[2].Ticker)
}

func TestTriage_TruncatesFinalists(t *testing.T) {
	bundles := map[string]*contracts.QualitativeBundle{}
	scores := make([]contracts.ScoreResult, 0, 5)
	for i := 0; i < 5; i++ {
		ticker := fmt.Sprintf("T%d", i)
		bundles[ticker] = &contracts.QualitativeBundle{Ticker: ticker}
		scores = append(scores, contracts.ScoreResult{Ticker: ticker, Total: 70 - float64(i)})
	}

	config := DefaultConfig()
	config.MaxFinalists = 2
	engine := NewEngine(config, &fakeResearch{bundles: bundles}, logger.NewNop())

	verdicts, err := engine.Triage(context.Background(), scores)
	require.NoError(t, err)

	finalists := 0
	overflow := 0
	for _, v := range verdicts {
		switch {
		case v.Decision == contracts.DecisionPass || v.Decision == contracts.DecisionFastTrack:
			finalists++
		case v.Decision == contracts.DecisionReject:
			assert.Contains(t, v.Reasoning, "finalist limit")
			overflow++
		}
	}

	assert.Equal(t, 2, finalists)
	assert.Equal(t, 3, overflow)
}

func TestTriage_Deterministic(t *testing.T) {
	bundle := &contracts.QualitativeBundle{
		Ticker:              "DET",
		ConsensusBullishPct: ptr(75),
		Beta:                ptr(1.7),
		ShortInterestPct:    ptr(18),
	}
	engine := newTestEngine(map[string]*contracts.QualitativeBundle{"DET": bundle})

	scores := []contracts.ScoreResult{{Ticker: "DET", Total: 62}}

	first, err := engine.Triage(context.Background(), scores)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Triage(context.Background(), scores)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
