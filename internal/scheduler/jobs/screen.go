package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/pipeline"
	"github.com/wonny/aurum/pkg/logger"
)

// ScreenJob runs the full funnel over the configured universe once a week,
// producing a fresh target portfolio.
type ScreenJob struct {
	orchestrator *pipeline.Orchestrator
	portfolioID  string
	strategy     contracts.Strategy
	universe     []string
	logger       *logger.Logger
}

// NewScreenJob creates a new screening job.
func NewScreenJob(orchestrator *pipeline.Orchestrator, portfolioID string, strategy contracts.Strategy, universe []string, log *logger.Logger) *ScreenJob {
	return &ScreenJob{
		orchestrator: orchestrator,
		portfolioID:  portfolioID,
		strategy:     strategy,
		universe:     universe,
		logger:       log,
	}
}

// Name returns the job name.
func (j *ScreenJob) Name() string {
	return "weekly_screen"
}

// Schedule runs Mondays at 07:00, before the market opens.
func (j *ScreenJob) Schedule() string {
	return "0 0 7 * * 1"
}

// Run executes the screening pipeline.
func (j *ScreenJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.RunScreen(ctx, pipeline.ScreenRequest{
		PortfolioID: j.portfolioID,
		Strategy:    j.strategy,
		Universe:    j.universe,
	})
	if err != nil {
		return fmt.Errorf("screen run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.Run.ID,
		"positions": len(result.Target.Positions),
	}).Info("Scheduled screen completed")

	return nil
}
