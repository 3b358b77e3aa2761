package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aurum/internal/contracts"
)

// Ledger persists the per-run audit trail: the run record itself, every
// scored analysis and every triage decision. One row per (run, ticker) for
// analyses; re-scoring a ticker within a run overwrites its row.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger creates a new run ledger.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// CreateRun inserts the run record at pipeline start.
func (l *Ledger) CreateRun(ctx context.Context, run *contracts.PortfolioRun) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO portfolio_runs (id, portfolio_id, strategy, status, tiers, error, config_snapshot, started_at)
		VALUES ($1, $2, $3, $4, '[]', $5, $6, $7)`,
		run.ID, run.PortfolioID, run.Strategy, run.Status, run.Error, run.ConfigSnapshot, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun writes the terminal state: status, tier counts, error text and
// completion time.
func (l *Ledger) FinishRun(ctx context.Context, run *contracts.PortfolioRun) error {
	tiers, err := json.Marshal(run.Tiers)
	if err != nil {
		return fmt.Errorf("failed to marshal tier counts: %w", err)
	}

	now := time.Now()
	run.CompletedAt = &now

	_, err = l.pool.Exec(ctx, `
		UPDATE portfolio_runs SET status = $2, tiers = $3, error = $4, completed_at = $5
		WHERE id = $1`,
		run.ID, run.Status, tiers, run.Error, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetRun retrieves one run by id.
func (l *Ledger) GetRun(ctx context.Context, id string) (*contracts.PortfolioRun, error) {
	var run contracts.PortfolioRun
	var tiers []byte

	err := l.pool.QueryRow(ctx, `
		SELECT id, portfolio_id, strategy, status, tiers, error, config_snapshot, started_at, completed_at
		FROM portfolio_runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &run.PortfolioID, &run.Strategy, &run.Status, &tiers, &run.Error,
		&run.ConfigSnapshot, &run.StartedAt, &run.CompletedAt)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if len(tiers) > 0 {
		if err := json.Unmarshal(tiers, &run.Tiers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tier counts: %w", err)
		}
	}

	return &run, nil
}

// ListRuns returns the most recent runs for a portfolio, newest first.
func (l *Ledger) ListRuns(ctx context.Context, portfolioID string, limit int) ([]contracts.PortfolioRun, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, portfolio_id, strategy, status, tiers, error, started_at, completed_at
		FROM portfolio_runs
		WHERE portfolio_id = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		portfolioID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]contracts.PortfolioRun, 0, limit)
	for rows.Next() {
		var run contracts.PortfolioRun
		var tiers []byte
		if err := rows.Scan(&run.ID, &run.PortfolioID, &run.Strategy, &run.Status, &tiers,
			&run.Error, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if len(tiers) > 0 {
			if err := json.Unmarshal(tiers, &run.Tiers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tier counts: %w", err)
			}
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveAnalysis upserts one ticker's full tier-3 payload for a run. Every
// scored candidate is persisted whether or not it was admitted.
func (l *Ledger) SaveAnalysis(ctx context.Context, runID string, result *contracts.ConvictionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = l.pool.Exec(ctx, `
		INSERT INTO stock_analyses (run_id, ticker, conviction, level, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, ticker) DO UPDATE SET
			conviction = EXCLUDED.conviction,
			level = EXCLUDED.level,
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at`,
		runID, result.Ticker, result.Conviction, result.Level, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalyses returns every persisted tier-3 payload for a run, highest
// conviction first.
func (l *Ledger) GetAnalyses(ctx context.Context, runID string) ([]contracts.ConvictionResult, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT payload FROM stock_analyses
		WHERE run_id = $1
		ORDER BY conviction DESC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.ConvictionResult, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		var result contracts.ConvictionResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// SaveTriageDecisions writes the tier-2 audit rows for a run.
func (l *Ledger) SaveTriageDecisions(ctx context.Context, runID string, verdicts []contracts.TriageVerdict) error {
	for _, v := range verdicts {
		green, err := json.Marshal(v.GreenFlags)
		if err != nil {
			return fmt.Errorf("failed to marshal green flags: %w", err)
		}
		red, err := json.Marshal(v.RedFlags)
		if err != nil {
			return fmt.Errorf("failed to marshal red flags: %w", err)
		}

		if _, err := l.pool.Exec(ctx, `
			INSERT INTO triage_decisions (run_id, ticker, tier1_score, decision, green_flags, red_flags, reasoning, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			runID, v.Ticker, v.Tier1Score, v.Decision, green, red, v.Reasoning, time.Now(),
		); err != nil {
			return fmt.Errorf("failed to save triage decision for %s: %w", v.Ticker, err)
		}
	}
	return nil
}

// GetTriageDecisions returns the tier-2 audit rows for a run.
func (l *Ledger) GetTriageDecisions(ctx context.Context, runID string) ([]contracts.TriageVerdict, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT ticker, tier1_score, decision, green_flags, red_flags, reasoning
		FROM triage_decisions
		WHERE run_id = $1
		ORDER BY tier1_score DESC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query triage decisions: %w", err)
	}
	defer rows.Close()

	verdicts := make([]contracts.TriageVerdict, 0)
	for rows.Next() {
		var v contracts.TriageVerdict
		var green, red []byte
		if err := rows.Scan(&v.Ticker, &v.Tier1Score, &v.Decision, &green, &red, &v.Reasoning); err != nil {
			return nil, fmt.Errorf("failed to scan triage decision: %w", err)
		}
		if err := json.Unmarshal(green, &v.GreenFlags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal green flags: %w", err)
		}
		if err := json.Unmarshal(red, &v.RedFlags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal red flags: %w", err)
		}
		verdicts = append(verdicts, v)
	}

	return verdicts, rows.Err()
}
