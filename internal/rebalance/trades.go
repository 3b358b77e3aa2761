package rebalance

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/aurum/internal/contracts"
)

// trimTargetFactor sizes a trimmed position to this share of the max
// position weight; addTargetFactor tops an underweight position up toward
// this multiple of the minimum weight.
const (
	trimTargetFactor = 0.8
	addTargetFactor  = 1.5
)

// buildTrades sizes and orders the trade list: sells first to free cash,
// then trims, then adds, then new buys until cash or the per-review caps
// run out. No trade ever sells more shares than held or spends past the
// remaining cash at recommendation time.
func (e *Engine) buildTrades(ctx context.Context, plan *contracts.RebalancePlan, portfolio *contracts.Portfolio, reviews []contracts.HoldingReview) {
	value := portfolio.Cash
	for _, r := range reviews {
		value += r.Shares * r.CurrentPrice
	}
	plan.PortfolioValue = value

	freedCash := 0.0

	sells := filterByAction(reviews, contracts.ActionSell)
	sort.SliceStable(sells, func(i, j int) bool {
		return sells[i].NewConviction < sells[j].NewConviction
	})
	for i, r := range sells {
		if i >= e.config.MaxSellsPerReview {
			e.logger.WithField("ticker", r.Ticker).Info("Sell deferred, per-review cap reached")
			continue
		}
		plan.Trades = append(plan.Trades, contracts.TradeRecommendation{
			Ticker: r.Ticker,
			Sector: r.Sector,
			Side:   contracts.SideSell,
			Shares: r.Shares,
			Price:  r.CurrentPrice,
			Value:  r.Shares * r.CurrentPrice,
			Reason: r.Reasoning,
		})
		freedCash += r.Shares * r.CurrentPrice
	}

	for _, r := range filterByAction(reviews, contracts.ActionTrim) {
		targetWeight := trimTargetFactor * e.config.MaxPositionPct
		if r.WeightPct <= targetWeight {
			continue
		}
		trimValue := (r.WeightPct - targetWeight) / 100 * value
		shares := trimValue / r.CurrentPrice
		if shares > r.Shares {
			shares = r.Shares
		}
		plan.Trades = append(plan.Trades, contracts.TradeRecommendation{
			Ticker: r.Ticker,
			Sector: r.Sector,
			Side:   contracts.SideSell,
			Shares: shares,
			Price:  r.CurrentPrice,
			Value:  shares * r.CurrentPrice,
			Reason: r.Reasoning,
		})
		freedCash += shares * r.CurrentPrice
	}

	reserve := e.config.TargetCashPct / 100 * value
	remaining := portfolio.Cash + freedCash - reserve
	if remaining < 0 {
		remaining = 0
	}

	for _, r := range filterByAction(reviews, contracts.ActionAdd) {
		if remaining <= 0 {
			break
		}
		targetWeight := addTargetFactor * e.config.MinPositionPct
		addValue := (targetWeight - r.WeightPct) / 100 * value
		if addValue <= 0 {
			continue
		}
		if addValue > remaining {
			addValue = remaining
		}
		plan.Trades = append(plan.Trades, contracts.TradeRecommendation{
			Ticker: r.Ticker,
			Sector: r.Sector,
			Side:   contracts.SideBuy,
			Shares: addValue / r.CurrentPrice,
			Price:  r.CurrentPrice,
			Value:  addValue,
			Reason: r.Reasoning,
		})
		remaining -= addValue
	}

	buys := make([]contracts.ConvictionResult, len(plan.NewCandidates))
	copy(buys, plan.NewCandidates)
	sort.SliceStable(buys, func(i, j int) bool {
		return buys[i].Conviction > buys[j].Conviction
	})

	bought := 0
	for _, cand := range buys {
		if bought >= e.config.MaxBuysPerReview || remaining <= 0 {
			break
		}

		price, ok := e.lookupPrice(ctx, cand.Ticker)
		if !ok {
			continue
		}

		buyValue := cand.SuggestedWeightPct / 100 * value
		if buyValue > remaining {
			buyValue = remaining
		}
		if buyValue <= 0 {
			continue
		}

		plan.Trades = append(plan.Trades, contracts.TradeRecommendation{
			Ticker: cand.Ticker,
			Sector: cand.Sector,
			Side:   contracts.SideBuy,
			Shares: buyValue / price,
			Price:  price,
			Value:  buyValue,
			Reason: fmt.Sprintf("New position at conviction %.1f (%s)", cand.Conviction, cand.Level),
		})
		remaining -= buyValue
		bought++
	}

	plan.RemainingCash = remaining + reserve

	if value > 0 {
		traded := 0.0
		for _, t := range plan.Trades {
			traded += t.Value
		}
		plan.TurnoverPct = traded / value * 100
	}
}

// lookupPrice fetches a current price for a buy candidate. A candidate
// whose price cannot be fetched is skipped, not failed.
func (e *Engine) lookupPrice(ctx context.Context, ticker string) (float64, bool) {
	snap, err := e.metrics.Snapshot(ctx, ticker)
	if err != nil || snap.Metrics.Price == nil || *snap.Metrics.Price <= 0 {
		e.logger.WithField("ticker", ticker).Warn("No price for buy candidate, skipping")
		return 0, false
	}
	return *snap.Metrics.Price, true
}

func filterByAction(reviews []contracts.HoldingReview, action contracts.RebalanceAction) []contracts.HoldingReview {
	out := make([]contracts.HoldingReview, 0)
	for _, r := range reviews {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}
