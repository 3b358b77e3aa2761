package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aurum/internal/contracts"
)

// ErrPortfolioNotFound is returned when the portfolio id is unknown.
var ErrPortfolioNotFound = errors.New("portfolio not found")

// Repository handles portfolio persistence: portfolios, holdings,
// transactions and construction snapshots. Holdings are unique per
// (portfolio_id, ticker); a sell that empties a position deletes the row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new portfolio repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetPortfolio retrieves a portfolio by id.
func (r *Repository) GetPortfolio(ctx context.Context, id string) (*contracts.Portfolio, error) {
	var p contracts.Portfolio
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, strategy, cash, created_at FROM portfolios WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Strategy, &p.Cash, &p.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	return &p, nil
}

// CreatePortfolio inserts a new portfolio.
func (r *Repository) CreatePortfolio(ctx context.Context, p *contracts.Portfolio) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolios (id, name, strategy, cash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.Strategy, p.Cash, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

// GetHoldings retrieves all holdings for a portfolio, largest first.
func (r *Repository) GetHoldings(ctx context.Context, portfolioID string) ([]contracts.Holding, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT portfolio_id, ticker, sector, shares, avg_cost, current_price,
		       last_conviction, last_level, updated_at
		FROM holdings
		WHERE portfolio_id = $1
		ORDER BY shares * current_price DESC`,
		portfolioID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]contracts.Holding, 0)
	for rows.Next() {
		var h contracts.Holding
		if err := rows.Scan(&h.PortfolioID, &h.Ticker, &h.Sector, &h.Shares, &h.AvgCost,
			&h.CurrentPrice, &h.LastConviction, &h.LastLevel, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// ApplyBuy upserts a holding for a buy fill and deducts cash, atomically.
// The cost basis is a running weighted average, not FIFO lots.
func (r *Repository) ApplyBuy(ctx context.Context, portfolioID, ticker, sector string, shares, price float64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var heldShares, avgCost float64
	err = tx.QueryRow(ctx,
		`SELECT shares, avg_cost FROM holdings WHERE portfolio_id = $1 AND ticker = $2 FOR UPDATE`,
		portfolioID, ticker,
	).Scan(&heldShares, &avgCost)

	switch {
	case err == pgx.ErrNoRows:
		_, err = tx.Exec(ctx, `
			INSERT INTO holdings (portfolio_id, ticker, sector, shares, avg_cost, current_price, last_conviction, last_level, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5, 0, 'VERY_LOW', $6)`,
			portfolioID, ticker, sector, shares, price, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert holding: %w", err)
		}

	case err != nil:
		return fmt.Errorf("failed to lock holding: %w", err)

	default:
		newShares := heldShares + shares
		newCost := (heldShares*avgCost + shares*price) / newShares
		_, err = tx.Exec(ctx, `
			UPDATE holdings SET shares = $3, avg_cost = $4, current_price = $5, updated_at = $6
			WHERE portfolio_id = $1 AND ticker = $2`,
			portfolioID, ticker, newShares, newCost, price, time.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE portfolios SET cash = cash - $2 WHERE id = $1`,
		portfolioID, shares*price,
	); err != nil {
		return fmt.Errorf("failed to deduct cash: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit buy: %w", err)
	}

	return nil
}

// ApplySell reduces a holding for a sell fill and credits cash. The fill
// is capped at the held share count; emptying the position removes the
// row so shares never go negative. Returns the shares actually sold.
func (r *Repository) ApplySell(ctx context.Context, portfolioID, ticker string, shares, price float64) (float64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var heldShares float64
	err = tx.QueryRow(ctx,
		`SELECT shares FROM holdings WHERE portfolio_id = $1 AND ticker = $2 FOR UPDATE`,
		portfolioID, ticker,
	).Scan(&heldShares)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("no holding for %s", ticker)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock holding: %w", err)
	}

	sold := shares
	if sold >= heldShares {
		sold = heldShares
		if _, err := tx.Exec(ctx,
			`DELETE FROM holdings WHERE portfolio_id = $1 AND ticker = $2`,
			portfolioID, ticker,
		); err != nil {
			return 0, fmt.Errorf("failed to remove holding: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx, `
			UPDATE holdings SET shares = shares - $3, updated_at = $4
			WHERE portfolio_id = $1 AND ticker = $2`,
			portfolioID, ticker, sold, time.Now(),
		); err != nil {
			return 0, fmt.Errorf("failed to reduce holding: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE portfolios SET cash = cash + $2 WHERE id = $1`,
		portfolioID, sold*price,
	); err != nil {
		return 0, fmt.Errorf("failed to credit cash: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit sell: %w", err)
	}

	return sold, nil
}

// UpdateMark refreshes a holding's price and conviction after a review.
func (r *Repository) UpdateMark(ctx context.Context, portfolioID, ticker string, price, conviction float64, level contracts.ConvictionLevel) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE holdings SET current_price = $3, last_conviction = $4, last_level = $5, updated_at = $6
		WHERE portfolio_id = $1 AND ticker = $2`,
		portfolioID, ticker, price, conviction, level, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update mark: %w", err)
	}
	return nil
}

// SaveTransaction appends an immutable trade log entry.
func (r *Repository) SaveTransaction(ctx context.Context, t *contracts.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, portfolio_id, run_id, ticker, side, shares, price, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.PortfolioID, t.RunID, t.Ticker, t.Side, t.Shares, t.Price, t.Reason, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// SaveTargetPortfolio replaces the stored construction snapshot for a
// portfolio: positions and the rejection audit trail, in one transaction.
func (r *Repository) SaveTargetPortfolio(ctx context.Context, target *contracts.TargetPortfolio) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM target_positions WHERE portfolio_id = $1`, target.PortfolioID,
	); err != nil {
		return fmt.Errorf("failed to delete old positions: %w", err)
	}

	for _, pos := range target.Positions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO target_positions (portfolio_id, ticker, sector, weight_pct, conviction, level, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			target.PortfolioID, pos.Ticker, pos.Sector, pos.WeightPct, pos.Conviction, pos.Level, pos.Reason, target.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert position: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO portfolio_snapshots (portfolio_id, strategy, total_positions, total_weight_pct, cash_pct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (portfolio_id) DO UPDATE SET
			strategy = EXCLUDED.strategy,
			total_positions = EXCLUDED.total_positions,
			total_weight_pct = EXCLUDED.total_weight_pct,
			cash_pct = EXCLUDED.cash_pct,
			created_at = EXCLUDED.created_at`,
		target.PortfolioID, target.Strategy, len(target.Positions), target.TotalWeightPct(), target.CashPct, target.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}
