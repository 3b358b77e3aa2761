package scoring

import (
	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

// Scorer computes the tier-1 multi-factor score for one candidate.
// Scoring is pure: the same snapshot and strategy always produce the same
// result, and a missing metric degrades to the neutral default instead of
// erroring.
type Scorer struct {
	logger *logger.Logger
}

// NewScorer creates a new scorer.
func NewScorer(log *logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// Score computes the five component scores and the strategy-weighted total.
func (s *Scorer) Score(candidate *contracts.Candidate, strategy contracts.Strategy) contracts.ScoreResult {
	m := candidate.Metrics

	result := contracts.ScoreResult{
		Ticker:   candidate.Ticker,
		Sector:   candidate.Sector,
		Strategy: strategy,
		Value:    valueScore(m),
		Quality:  qualityScore(m),
		Risk:     riskScore(m),
		Growth:   growthScore(m),
		Momentum: momentumScore(m),
	}

	w := WeightsFor(strategy)
	result.Total = (result.Value*w.Value +
		result.Quality*w.Quality +
		result.Risk*w.Risk +
		result.Growth*w.Growth +
		result.Momentum*w.Momentum) / 100

	s.logger.WithFields(map[string]interface{}{
		"ticker": candidate.Ticker,
		"value":  result.Value,
		"growth": result.Growth,
		"total":  result.Total,
	}).Debug("Scored candidate")

	return result
}

// valueScore blends P/E, P/B and dividend yield.
// P/E: 50% weight; a missing figure scores 20, a non-positive one
// (loss-maker) scores 10, otherwise lower multiples score higher.
func valueScore(m contracts.MetricSnapshot) float64 {
	var peScore float64
	switch {
	case m.PE == nil:
		peScore = 20
	case *m.PE <= 0:
		peScore = 10
	default:
		peScore = Normalize(*m.PE, 5, 50, true)
	}

	pbScore := Neutral
	if m.PB != nil {
		pbScore = Normalize(*m.PB, 0.5, 10, true)
	}

	divScore := Neutral
	if m.DividendYield != nil {
		divScore = Normalize(*m.DividendYield, 0, 6, false)
	}

	return peScore*0.5 + pbScore*0.3 + divScore*0.2
}

// qualityScore blends profit margin, ROE and current ratio.
func qualityScore(m contracts.MetricSnapshot) float64 {
	marginScore := Neutral
	if m.ProfitMargin != nil {
		marginScore = Normalize(*m.ProfitMargin, 0, 30, false)
	}

	roeScore := Neutral
	if m.ROE != nil {
		roeScore = Normalize(*m.ROE, 0, 30, false)
	}

	return marginScore*0.4 + roeScore*0.4 + currentRatioScore(m.CurrentRatio)*0.2
}

// currentRatioScore rewards the healthy 1-3 band. Below 1 liquidity is
// penalized hard; above 3 capital is likely sitting idle, scored flat 70.
func currentRatioScore(cr *float64) float64 {
	if cr == nil {
		return Neutral
	}

	switch {
	case *cr < 1:
		return Normalize(*cr, 0, 1, false) * 0.5
	case *cr > 3:
		return 70
	default:
		return Normalize(*cr, 0.5, 2.5, false)
	}
}

// riskScore maps beta inversely: lower beta scores higher.
func riskScore(m contracts.MetricSnapshot) float64 {
	if m.Beta == nil {
		return Neutral
	}
	return Normalize(*m.Beta, 0.5, 2.0, true)
}

// growthScore averages revenue and EPS growth.
func growthScore(m contracts.MetricSnapshot) float64 {
	revScore := Neutral
	if m.RevenueGrowth != nil {
		revScore = Normalize(*m.RevenueGrowth, -10, 50, false)
	}

	epsScore := Neutral
	if m.EPSGrowth != nil {
		epsScore = Normalize(*m.EPSGrowth, -20, 100, false)
	}

	return revScore*0.5 + epsScore*0.5
}

// momentumScore maps the 52-week change.
func momentumScore(m contracts.MetricSnapshot) float64 {
	if m.Change52W == nil {
		return Neutral
	}
	return Normalize(*m.Change52W, -50, 100, false)
}
