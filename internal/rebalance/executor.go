package rebalance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

// Store is the slice of the portfolio repository the executor needs.
type Store interface {
	ApplyBuy(ctx context.Context, portfolioID, ticker, sector string, shares, price float64) error
	ApplySell(ctx context.Context, portfolioID, ticker string, shares, price float64) (float64, error)
	SaveTransaction(ctx context.Context, t *contracts.Transaction) error
}

// ExecutionResult reports what actually happened when a plan was applied.
type ExecutionResult struct {
	Applied []contracts.Transaction `json:"applied"`
	Failed  []string                `json:"failed,omitempty"`
}

// Executor applies a rebalance plan against the holding store, one trade
// at a time. A failed trade is logged and skipped; there is no whole-batch
// rollback, so a partially applied plan leaves the portfolio consistent
// with the trades that did land.
type Executor struct {
	store  Store
	logger *logger.Logger
}

// NewExecutor creates a new trade executor.
func NewExecutor(store Store, log *logger.Logger) *Executor {
	return &Executor{store: store, logger: log}
}

// Execute applies the plan's trades in order: the plan was built
// sells-first so the buys are funded by the time they run.
func (e *Executor) Execute(ctx context.Context, plan *contracts.RebalancePlan) *ExecutionResult {
	result := &ExecutionResult{}

	for _, trade := range plan.Trades {
		txn, err := e.applyTrade(ctx, plan, trade)
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker": trade.Ticker,
				"side":   string(trade.Side),
				"error":  err.Error(),
			}).Error("Trade failed, skipping")
			result.Failed = append(result.Failed, trade.Ticker)
			continue
		}
		result.Applied = append(result.Applied, *txn)
	}

	e.logger.WithFields(map[string]interface{}{
		"portfolio_id": plan.PortfolioID,
		"applied":      len(result.Applied),
		"failed":       len(result.Failed),
	}).Info("Rebalance plan executed")

	return result
}

func (e *Executor) applyTrade(ctx context.Context, plan *contracts.RebalancePlan, trade contracts.TradeRecommendation) (*contracts.Transaction, error) {
	shares := trade.Shares

	switch trade.Side {
	case contracts.SideSell:
		sold, err := e.store.ApplySell(ctx, plan.PortfolioID, trade.Ticker, trade.Shares, trade.Price)
		if err != nil {
			return nil, err
		}
		shares = sold
	default:
		if err := e.store.ApplyBuy(ctx, plan.PortfolioID, trade.Ticker, trade.Sector, trade.Shares, trade.Price); err != nil {
			return nil, err
		}
	}

	txn := &contracts.Transaction{
		ID:          uuid.NewString(),
		PortfolioID: plan.PortfolioID,
		RunID:       plan.RunID,
		Ticker:      trade.Ticker,
		Side:        trade.Side,
		Shares:      shares,
		Price:       trade.Price,
		Reason:      trade.Reason,
		CreatedAt:   time.Now(),
	}
	if err := e.store.SaveTransaction(ctx, txn); err != nil {
		// the position change landed; a lost log line is reported, not
		// unwound
		e.logger.WithError(err).Error("Failed to record transaction")
	}

	return txn, nil
}
