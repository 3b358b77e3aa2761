package rebalance

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/conviction"
	"github.com/wonny/aurum/internal/scoring"
	"github.com/wonny/aurum/pkg/logger"
)

// Config defines rebalance review parameters.
type Config struct {
	// SellThreshold: conviction below this exits the position.
	SellThreshold float64
	// HoldThreshold: conviction below this (but above sell) trims it.
	HoldThreshold float64
	// BuyThreshold: minimum conviction for a replacement candidate.
	BuyThreshold float64
	// MaxSellsPerReview caps full exits in one review.
	MaxSellsPerReview int
	// MaxBuysPerReview caps new positions in one review.
	MaxBuysPerReview int
	// MaxTurnoverPct is reported against, not enforced.
	MaxTurnoverPct float64
	// MinPositionPct / MaxPositionPct bound individual position weights.
	MinPositionPct float64
	MaxPositionPct float64
	// TargetCashPct is the reserve kept out of buy funding.
	TargetCashPct float64
}

// DefaultConfig returns the default rebalance configuration.
func DefaultConfig() Config {
	return Config{
		SellThreshold:     40,
		HoldThreshold:     55,
		BuyThreshold:      65,
		MaxSellsPerReview: 3,
		MaxBuysPerReview:  2,
		MaxTurnoverPct:    30,
		MinPositionPct:    2,
		MaxPositionPct:    10,
		TargetCashPct:     5,
	}
}

// addConvictionMin is the conviction floor for topping up an underweight
// position; below it an undersized holding is simply left alone.
const addConvictionMin = 70.0

// Engine re-scores current holdings against fresh data, classifies each as
// HOLD, TRIM, SELL or ADD, and turns the verdicts plus any vetted
// replacement candidates into an ordered trade list.
type Engine struct {
	config      Config
	metrics     contracts.MetricProvider
	scorer      *scoring.Scorer
	synthesizer *conviction.Synthesizer
	logger      *logger.Logger
}

// NewEngine creates a new rebalance engine.
func NewEngine(config Config, metrics contracts.MetricProvider, scorer *scoring.Scorer, synthesizer *conviction.Synthesizer, log *logger.Logger) *Engine {
	return &Engine{
		config:      config,
		metrics:     metrics,
		scorer:      scorer,
		synthesizer: synthesizer,
		logger:      log,
	}
}

// Review re-prices and re-scores every holding. A metric fetch failure
// keeps the stored price and scores from whatever is available; per-ticker
// failures never abort the review.
func (e *Engine) Review(ctx context.Context, portfolio *contracts.Portfolio, holdings []contracts.Holding, strategy contracts.Strategy) []contracts.HoldingReview {
	verdicts := make([]contracts.TriageVerdict, len(holdings))
	prices := make([]float64, len(holdings))

	for i, h := range holdings {
		prices[i] = h.CurrentPrice

		snap, err := e.metrics.Snapshot(ctx, h.Ticker)
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker": h.Ticker,
				"error":  err.Error(),
			}).Warn("Re-price failed, keeping stored price")
			snap = &contracts.Candidate{Ticker: h.Ticker, Sector: h.Sector}
		}
		if snap.Metrics.Price != nil && *snap.Metrics.Price > 0 {
			prices[i] = *snap.Metrics.Price
		}

		tier1 := e.scorer.Score(snap, strategy)
		verdicts[i] = contracts.TriageVerdict{
			Ticker:     h.Ticker,
			Sector:     h.Sector,
			Tier1Score: tier1.Total,
			Decision:   contracts.DecisionPass,
		}
	}

	results := e.synthesizer.SynthesizeBatch(ctx, verdicts, strategy)

	value := portfolioValue(portfolio, holdings, prices)

	reviews := make([]contracts.HoldingReview, len(holdings))
	for i, h := range holdings {
		weightPct := 0.0
		if value > 0 {
			weightPct = h.Shares * prices[i] / value * 100
		}

		review := contracts.HoldingReview{
			Ticker:             h.Ticker,
			Sector:             h.Sector,
			Shares:             h.Shares,
			CurrentPrice:       prices[i],
			WeightPct:          weightPct,
			PreviousConviction: h.LastConviction,
			NewConviction:      results[i].Conviction,
			ConvictionDelta:    results[i].Conviction - h.LastConviction,
			Level:              results[i].Level,
		}
		review.Action, review.Reasoning = e.classify(&review)
		reviews[i] = review
	}

	return reviews
}

// classify applies the action rules in priority order and returns the
// action with the reasoning that justifies it.
func (e *Engine) classify(r *contracts.HoldingReview) (contracts.RebalanceAction, string) {
	switch {
	case r.NewConviction < e.config.SellThreshold:
		return contracts.ActionSell, fmt.Sprintf(
			"Conviction %.1f fell below sell threshold %.1f (was %.1f)",
			r.NewConviction, e.config.SellThreshold, r.PreviousConviction)

	case r.NewConviction < e.config.HoldThreshold:
		return contracts.ActionTrim, fmt.Sprintf(
			"Conviction %.1f below hold threshold %.1f",
			r.NewConviction, e.config.HoldThreshold)

	case r.WeightPct > e.config.MaxPositionPct && r.NewConviction < addConvictionMin:
		return contracts.ActionTrim, fmt.Sprintf(
			"Weight %.1f%% exceeds %.1f%% cap without the conviction to justify it",
			r.WeightPct, e.config.MaxPositionPct)

	case r.WeightPct < e.config.MinPositionPct && r.NewConviction >= addConvictionMin:
		return contracts.ActionAdd, fmt.Sprintf(
			"Weight %.1f%% under %.1f%% floor at conviction %.1f",
			r.WeightPct, e.config.MinPositionPct, r.NewConviction)

	default:
		return contracts.ActionHold, fmt.Sprintf(
			"Conviction %.1f holds within thresholds", r.NewConviction)
	}
}

// Plan assembles the full rebalance plan. candidates are already-convicted
// replacements (typically the output of a fresh screen over the universe
// minus current holdings); they are filtered to the buy threshold here.
func (e *Engine) Plan(ctx context.Context, runID string, portfolio *contracts.Portfolio, holdings []contracts.Holding, strategy contracts.Strategy, candidates []contracts.ConvictionResult) *contracts.RebalancePlan {
	reviews := e.Review(ctx, portfolio, holdings, strategy)

	plan := &contracts.RebalancePlan{
		PortfolioID: portfolio.ID,
		RunID:       runID,
		Strategy:    strategy,
		Reviews:     reviews,
		CreatedAt:   time.Now(),
	}

	held := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		held[h.Ticker] = true
	}
	for _, cand := range candidates {
		if cand.Conviction >= e.config.BuyThreshold && !held[cand.Ticker] {
			plan.NewCandidates = append(plan.NewCandidates, cand)
		}
	}

	e.buildTrades(ctx, plan, portfolio, reviews)

	if plan.TurnoverPct > e.config.MaxTurnoverPct {
		e.logger.WithFields(map[string]interface{}{
			"turnover_pct": plan.TurnoverPct,
			"max_pct":      e.config.MaxTurnoverPct,
		}).Warn("Planned turnover exceeds configured maximum")
	}

	e.logger.WithFields(map[string]interface{}{
		"portfolio_id": portfolio.ID,
		"holdings":     len(holdings),
		"trades":       len(plan.Trades),
		"turnover_pct": plan.TurnoverPct,
	}).Info("Rebalance plan built")

	return plan
}

func portfolioValue(p *contracts.Portfolio, holdings []contracts.Holding, prices []float64) float64 {
	value := p.Cash
	for i, h := range holdings {
		value += h.Shares * prices[i]
	}
	return value
}
