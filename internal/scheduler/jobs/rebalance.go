package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aurum/internal/pipeline"
	"github.com/wonny/aurum/pkg/logger"
)

// RebalanceJob reviews the portfolio every weekday morning. It only
// recommends; trades are applied by an operator through the CLI.
type RebalanceJob struct {
	orchestrator *pipeline.Orchestrator
	portfolioID  string
	universe     []string
	logger       *logger.Logger
}

// NewRebalanceJob creates a new rebalance review job.
func NewRebalanceJob(orchestrator *pipeline.Orchestrator, portfolioID string, universe []string, log *logger.Logger) *RebalanceJob {
	return &RebalanceJob{
		orchestrator: orchestrator,
		portfolioID:  portfolioID,
		universe:     universe,
		logger:       log,
	}
}

// Name returns the job name.
func (j *RebalanceJob) Name() string {
	return "daily_rebalance_review"
}

// Schedule runs weekdays at 07:30.
func (j *RebalanceJob) Schedule() string {
	return "0 30 7 * * 1-5"
}

// Run executes the rebalance review without applying trades.
func (j *RebalanceJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.RunRebalance(ctx, pipeline.RebalanceRequest{
		PortfolioID: j.portfolioID,
		Universe:    j.universe,
		Execute:     false,
	})
	if err != nil {
		return fmt.Errorf("rebalance review: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.Run.ID,
		"trades":   len(result.Plan.Trades),
		"turnover": result.Plan.TurnoverPct,
	}).Info("Scheduled rebalance review completed")

	return nil
}
