package conviction

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

// fakeAnalyst returns canned text per ticker and kind, erroring where no
// entry exists.
type fakeAnalyst struct {
	texts map[string]map[contracts.AnalysisKind]string
}

func (f *fakeAnalyst) Analyze(_ context.Context, ticker string, kind contracts.AnalysisKind) (string, error) {
	byKind, ok := f.texts[ticker]
	if !ok {
		return "", fmt.Errorf("analysis unavailable for %s", ticker)
	}
	return byKind[kind], nil
}

func newTestSynthesizer(texts map[string]map[contracts.AnalysisKind]string) *Synthesizer {
	return NewSynthesizer(DefaultConfig(), &fakeAnalyst{texts: texts}, NewRegexExtractor(), logger.NewNop())
}

func emptyBundle(ticker string) *contracts.AnalysisBundle {
	return &contracts.AnalysisBundle{Ticker: ticker, Texts: map[contracts.AnalysisKind]string{}}
}

func TestSynthesize_EmptyBundleScoresNeutral(t *testing.T) {
	s := newTestSynthesizer(nil)

	verdict := &contracts.TriageVerdict{Ticker: "NONE", Tier1Score: 62, Decision: contracts.DecisionPass}
	result := s.Synthesize(verdict, emptyBundle("NONE"))

	assert.InDelta(t, 50.0, result.Valuation, 1e-9)
	assert.InDelta(t, 50.0, result.Sentiment, 1e-9)
	assert.InDelta(t, 50.0, result.Risk, 1e-9)
	assert.InDelta(t, 50.0, result.Earnings, 1e-9)
	assert.InDelta(t, 62.0, result.Quality, 1e-9)
	assert.Nil(t, result.CompositeUpside)
	assert.Empty(t, result.BullFactors)
	assert.Empty(t, result.BearFactors)
}

func TestSynthesize_FastTrackQualityBonus(t *testing.T) {
	s := newTestSynthesizer(nil)

	verdict := &contracts.TriageVerdict{Ticker: "FAST", Tier1Score: 72, Decision: contracts.DecisionFastTrack}
	result := s.Synthesize(verdict, emptyBundle("FAST"))
	assert.InDelta(t, 82.0, result.Quality, 1e-9)

	// Bonus is capped at 100.
	verdict.Tier1Score = 95
	result = s.Synthesize(verdict, emptyBundle("FAST"))
	assert.InDelta(t, 100.0, result.Quality, 1e-9)
}

func TestSynthesize_ValuationBlend(t *testing.T) {
	bundle := &contracts.AnalysisBundle{
		Ticker: "VAL",
		Texts: map[contracts.AnalysisKind]string{
			contracts.AnalysisDCF:        "Our DCF implies upside of 20% to fair value.",
			contracts.AnalysisComparable: "Peer multiples suggest 10% upside.",
		},
	}

	s := newTestSynthesizer(nil)
	verdict := &contracts.TriageVerdict{Ticker: "VAL", Tier1Score: 60, Decision: contracts.DecisionPass}
	result := s.Synthesize(verdict, bundle)

	// mapUpside(20)=70, mapUpside(10)=60, blended 60/40.
	assert.InDelta(t, 70*0.6+60*0.4, result.Valuation, 1e-9)

	require.NotNil(t, result.CompositeUpside)
	assert.InDelta(t, 20*0.6+10*0.4, *result.CompositeUpside, 1e-9)

	assert.Contains(t, result.BullFactors, "DCF implies 20.0% upside")
	assert.Contains(t, result.BullFactors, "Peer comparables imply 10.0% upside")
}

func TestSynthesize_SentimentAdjustments(t *testing.T) {
	bundle := &contracts.AnalysisBundle{
		Ticker: "SENT",
		Texts: map[contracts.AnalysisKind]string{
			contracts.AnalysisSentiment: "Coverage is very bullish; consensus is a strong buy with insider buying reported.",
		},
	}

	s := newTestSynthesizer(nil)
	verdict := &contracts.TriageVerdict{Ticker: "SENT", Tier1Score: 55, Decision: contracts.DecisionPass}
	result := s.Synthesize(verdict, bundle)

	// 90 + 10 + 5 clamps to 100.
	assert.InDelta(t, 100.0, result.Sentiment, 1e-9)
}

func TestFinalize_WeightedConviction(t *testing.T) {
	s := newTestSynthesizer(nil)

	result := contracts.ConvictionResult{
		Ticker:    "FIN",
		Valuation: 80,
		Sentiment: 60,
		Risk:      70,
		Earnings:  65,
		Quality:   75,
	}

	s.Finalize(&result, contracts.StrategyBalanced, nil)

	w := WeightsFor(contracts.StrategyBalanced)
	want := (80*w.Valuation + 60*w.Sentiment + 70*w.Risk + 65*w.Earnings + 75*w.Quality) / 100
	assert.InDelta(t, want, result.Conviction, 1e-9)
	assert.Equal(t, contracts.LevelForScore(want), result.Level)
	assert.NotEmpty(t, result.Reasoning)

	suggested, mx := positionSize(result.Level, nil)
	assert.InDelta(t, suggested, result.SuggestedWeightPct, 1e-9)
	assert.InDelta(t, mx, result.MaxWeightPct, 1e-9)
}

func TestWeightsFor_ConvictionSumTo100(t *testing.T) {
	for _, strategy := range []contracts.Strategy{
		contracts.StrategyValue,
		contracts.StrategyGrowth,
		contracts.StrategyBalanced,
	} {
		assert.InDelta(t, 100.0, WeightsFor(strategy).Sum(), 1e-9, "weights for %s", strategy)
	}
}

func TestSynthesizeBatch_KeepsOrderAndDegrades(t *testing.T) {
	texts := map[string]map[contracts.AnalysisKind]string{
		"GOOD": {
			contracts.AnalysisDCF:       "Upside of 30% on our base case.",
			contracts.AnalysisSentiment: "Tone is bullish.",
		},
		// "DARK" is absent: every analysis call errors and the ticker
		// scores on neutral defaults.
	}
	s := newTestSynthesizer(texts)

	verdicts := []contracts.TriageVerdict{
		{Ticker: "GOOD", Tier1Score: 70, Decision: contracts.DecisionPass},
		{Ticker: "DARK", Tier1Score: 58, Decision: contracts.DecisionPass},
	}

	results := s.SynthesizeBatch(context.Background(), verdicts, contracts.StrategyBalanced)
	require.Len(t, results, 2)

	assert.Equal(t, "GOOD", results[0].Ticker)
	assert.Equal(t, "DARK", results[1].Ticker)

	assert.Greater(t, results[0].Valuation, 50.0)
	assert.InDelta(t, 50.0, results[1].Valuation, 1e-9)
	assert.InDelta(t, 50.0, results[1].Sentiment, 1e-9)
	assert.InDelta(t, 58.0, results[1].Quality, 1e-9)
}

func TestSynthesizeBatch_Deterministic(t *testing.T) {
	texts := map[string]map[contracts.AnalysisKind]string{
		"DET": {
			contracts.AnalysisDCF:      "Upside of 15% to intrinsic value.",
			contracts.AnalysisRisk:     "Risk score of 4/10 overall.",
			contracts.AnalysisEarnings: "The quarter beat expectations.",
		},
	}
	s := newTestSynthesizer(texts)

	verdicts := []contracts.TriageVerdict{{Ticker: "DET", Tier1Score: 66, Decision: contracts.DecisionPass}}

	first := s.SynthesizeBatch(context.Background(), verdicts, contracts.StrategyGrowth)
	for i := 0; i < 5; i++ {
		again := s.SynthesizeBatch(context.Background(), verdicts, contracts.StrategyGrowth)
		assert.Equal(t, first, again)
	}
}
