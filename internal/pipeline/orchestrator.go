package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/conviction"
	"github.com/wonny/aurum/internal/portfolio"
	"github.com/wonny/aurum/internal/rebalance"
	"github.com/wonny/aurum/internal/screener"
	"github.com/wonny/aurum/internal/triage"
	"github.com/wonny/aurum/pkg/config"
	"github.com/wonny/aurum/pkg/logger"
)

// Orchestrator coordinates the T1 → T2 → T3 → T4 funnel, persisting at
// every stage boundary so a run can be audited tier by tier. Stage logic
// stays in the stage packages; this file only sequences and records.
type Orchestrator struct {
	funnel config.FunnelConfig

	screener    *screener.BatchScreener
	triage      *triage.Engine
	synthesizer *conviction.Synthesizer
	constructor *portfolio.Constructor
	rebalancer  *rebalance.Engine
	executor    *rebalance.Executor

	ledger        *Ledger
	portfolioRepo *portfolio.Repository

	logger *logger.Logger
}

// NewOrchestrator creates a new pipeline orchestrator.
func NewOrchestrator(
	funnel config.FunnelConfig,
	batchScreener *screener.BatchScreener,
	triageEngine *triage.Engine,
	synthesizer *conviction.Synthesizer,
	constructor *portfolio.Constructor,
	rebalancer *rebalance.Engine,
	executor *rebalance.Executor,
	ledger *Ledger,
	portfolioRepo *portfolio.Repository,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		funnel:        funnel,
		screener:      batchScreener,
		triage:        triageEngine,
		synthesizer:   synthesizer,
		constructor:   constructor,
		rebalancer:    rebalancer,
		executor:      executor,
		ledger:        ledger,
		portfolioRepo: portfolioRepo,
		logger:        log,
	}
}

// ScreenRequest drives a full screening run.
type ScreenRequest struct {
	PortfolioID string
	Strategy    contracts.Strategy
	Universe    []string
}

// ScreenResult is the structured outcome of a screening run.
type ScreenResult struct {
	Run       *contracts.PortfolioRun
	Screen    *contracts.ScreenResult
	Verdicts  []contracts.TriageVerdict
	Scored    []contracts.ConvictionResult
	Target    *contracts.TargetPortfolio
	Duration  time.Duration
}

// RunScreen executes the full funnel: score, triage, synthesize, construct.
// Per-ticker failures are tallied inside the stages and never fail the run;
// only invalid input and unrecoverable persistence failures do.
func (o *Orchestrator) RunScreen(ctx context.Context, req ScreenRequest) (*ScreenResult, error) {
	start := time.Now()

	run, err := o.startRun(ctx, req.PortfolioID, req.Strategy, len(req.Universe))
	if err != nil {
		return nil, err
	}

	result := &ScreenResult{Run: run}

	// T1: score and screen the universe.
	screenResult, err := o.screener.Screen(ctx, req.Universe, req.Strategy, nil)
	if err != nil {
		return result, o.failRun(ctx, run, fmt.Errorf("T1 screening: %w", err))
	}
	result.Screen = screenResult
	run.RecordTier(contracts.StageScoring, len(req.Universe), len(screenResult.Selected))

	// T2: triage the survivors.
	verdicts, err := o.triage.Triage(ctx, screenResult.Selected)
	if err != nil {
		return result, o.failRun(ctx, run, fmt.Errorf("T2 triage: %w", err))
	}
	result.Verdicts = verdicts
	if err := o.ledger.SaveTriageDecisions(ctx, run.ID, verdicts); err != nil {
		o.recordPersistence(run, err)
	}

	finalists := selectFinalists(verdicts)
	run.RecordTier(contracts.StageTriage, len(verdicts), len(finalists))

	// T3: synthesize conviction for the finalists and persist every scored
	// candidate, admitted or not.
	scored := o.synthesizer.SynthesizeBatch(ctx, finalists, req.Strategy)
	result.Scored = scored
	for i := range scored {
		if err := o.ledger.SaveAnalysis(ctx, run.ID, &scored[i]); err != nil {
			o.recordPersistence(run, err)
		}
	}
	run.RecordTier(contracts.StageConviction, len(finalists), len(scored))

	// T4: construct the target portfolio.
	target, err := o.constructor.Construct(ctx, req.PortfolioID, req.Strategy, scored)
	if err != nil {
		return result, o.failRun(ctx, run, fmt.Errorf("T4 construction: %w", err))
	}
	result.Target = target
	run.RecordTier(contracts.StageConstruction, len(scored), len(target.Positions))

	if err := o.portfolioRepo.SaveTargetPortfolio(ctx, target); err != nil {
		o.recordPersistence(run, err)
	}

	o.completeRun(ctx, run)
	result.Duration = time.Since(start)

	o.logger.WithFields(map[string]interface{}{
		"run_id":    run.ID,
		"universe":  len(req.Universe),
		"positions": len(target.Positions),
		"duration":  result.Duration.Seconds(),
	}).Info("Screening run completed")

	return result, nil
}

// RebalanceRequest drives a rebalance review.
type RebalanceRequest struct {
	PortfolioID string
	// Strategy overrides the portfolio's stored strategy when set.
	Strategy contracts.Strategy
	// Universe, when non-empty, is screened (minus current holdings) for
	// replacement candidates.
	Universe []string
	// Execute applies the resulting trades instead of only recommending.
	Execute bool
}

// RebalanceResult is the structured outcome of a rebalance run.
type RebalanceResult struct {
	Run       *contracts.PortfolioRun
	Plan      *contracts.RebalancePlan
	Execution *rebalance.ExecutionResult
	Duration  time.Duration
}

// RunRebalance re-scores current holdings, optionally screens for
// replacements, and builds (and optionally executes) the trade plan.
func (o *Orchestrator) RunRebalance(ctx context.Context, req RebalanceRequest) (*RebalanceResult, error) {
	start := time.Now()

	p, err := o.portfolioRepo.GetPortfolio(ctx, req.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	strategy := p.Strategy
	if req.Strategy != "" {
		strategy = req.Strategy
	}

	run, err := o.startRun(ctx, req.PortfolioID, strategy, len(req.Universe))
	if err != nil {
		return nil, err
	}

	result := &RebalanceResult{Run: run}

	holdings, err := o.portfolioRepo.GetHoldings(ctx, req.PortfolioID)
	if err != nil {
		return result, o.failRun(ctx, run, fmt.Errorf("load holdings: %w", err))
	}

	candidates, err := o.screenReplacements(ctx, run, req.Universe, holdings, strategy)
	if err != nil {
		// A failed replacement screen degrades the review to holdings-only.
		o.logger.WithError(err).Warn("Replacement screen failed, reviewing holdings only")
		candidates = nil
	}

	plan := o.rebalancer.Plan(ctx, run.ID, p, holdings, strategy, candidates)
	result.Plan = plan
	run.RecordTier(contracts.StageRebalance, len(holdings), len(plan.Trades))

	for i := range plan.Reviews {
		// Persist each review's fresh conviction under this run.
		o.updateMark(ctx, run, &plan.Reviews[i])
	}

	if req.Execute && o.executor != nil {
		result.Execution = o.executor.Execute(ctx, plan)
	}

	o.completeRun(ctx, run)
	result.Duration = time.Since(start)

	o.logger.WithFields(map[string]interface{}{
		"run_id":   run.ID,
		"trades":   len(plan.Trades),
		"turnover": plan.TurnoverPct,
		"executed": req.Execute,
		"duration": result.Duration.Seconds(),
	}).Info("Rebalance run completed")

	return result, nil
}

// screenReplacements runs the T1→T2→T3 funnel over the universe minus
// current holdings and returns conviction-scored candidates.
func (o *Orchestrator) screenReplacements(ctx context.Context, run *contracts.PortfolioRun, universe []string, holdings []contracts.Holding, strategy contracts.Strategy) ([]contracts.ConvictionResult, error) {
	if len(universe) == 0 {
		return nil, nil
	}

	held := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		held[h.Ticker] = true
	}
	tickers := make([]string, 0, len(universe))
	for _, t := range universe {
		if !held[t] {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		return nil, nil
	}

	screenResult, err := o.screener.Screen(ctx, tickers, strategy, nil)
	if err != nil {
		return nil, fmt.Errorf("replacement screen: %w", err)
	}
	run.RecordTier(contracts.StageScoring, len(tickers), len(screenResult.Selected))

	verdicts, err := o.triage.Triage(ctx, screenResult.Selected)
	if err != nil {
		return nil, fmt.Errorf("replacement triage: %w", err)
	}
	finalists := selectFinalists(verdicts)
	run.RecordTier(contracts.StageTriage, len(verdicts), len(finalists))

	scored := o.synthesizer.SynthesizeBatch(ctx, finalists, strategy)
	for i := range scored {
		if err := o.ledger.SaveAnalysis(ctx, run.ID, &scored[i]); err != nil {
			o.recordPersistence(run, err)
		}
	}
	run.RecordTier(contracts.StageConviction, len(finalists), len(scored))

	return scored, nil
}

// startRun validates the request and writes the run record. A validation
// failure marks the run failed before any stage starts.
func (o *Orchestrator) startRun(ctx context.Context, portfolioID string, strategy contracts.Strategy, universeSize int) (*contracts.PortfolioRun, error) {
	run := &contracts.PortfolioRun{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Strategy:    strategy,
		Status:      contracts.RunStatusRunning,
		StartedAt:   time.Now(),
	}

	if snapshot, err := json.Marshal(o.funnel); err == nil {
		run.ConfigSnapshot = snapshot
	}

	if err := validateRequest(portfolioID, strategy); err != nil {
		run.Status = contracts.RunStatusFailed
		run.Error = err.Error()
		if lerr := o.ledger.CreateRun(ctx, run); lerr != nil {
			o.logger.WithError(lerr).Error("Failed to record failed run")
		} else if lerr := o.ledger.FinishRun(ctx, run); lerr != nil {
			o.logger.WithError(lerr).Error("Failed to finish failed run")
		}
		return nil, err
	}

	if err := o.ledger.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run record: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":       run.ID,
		"portfolio_id": portfolioID,
		"strategy":     string(strategy),
		"universe":     universeSize,
	}).Info("Pipeline run started")

	return run, nil
}

func validateRequest(portfolioID string, strategy contracts.Strategy) error {
	if portfolioID == "" {
		return fmt.Errorf("portfolio id is required")
	}
	if !strategy.IsValid() {
		return fmt.Errorf("unknown strategy %q", strategy)
	}
	return nil
}

// failRun records a fatal stage error and closes the run.
func (o *Orchestrator) failRun(ctx context.Context, run *contracts.PortfolioRun, err error) error {
	run.Status = contracts.RunStatusFailed
	run.Error = err.Error()
	if lerr := o.ledger.FinishRun(ctx, run); lerr != nil {
		o.logger.WithError(lerr).Error("Failed to record run failure")
	}
	return err
}

// completeRun closes the run. A failed terminal write is logged; the
// in-memory result is still returned to the caller.
func (o *Orchestrator) completeRun(ctx context.Context, run *contracts.PortfolioRun) {
	if run.Status == contracts.RunStatusRunning {
		run.Status = contracts.RunStatusCompleted
	}
	if err := o.ledger.FinishRun(ctx, run); err != nil {
		o.logger.WithError(err).Error("Failed to record run completion")
	}
}

// recordPersistence logs a non-fatal persistence failure and keeps its
// message on the run record. Processing continues; the run fails only when
// recovery is impossible.
func (o *Orchestrator) recordPersistence(run *contracts.PortfolioRun, err error) {
	o.logger.WithError(err).Error("Persistence failure, continuing")
	if run.Error == "" {
		run.Error = err.Error()
	}
}

// updateMark refreshes the stored holding mark from a review. Failures are
// non-fatal.
func (o *Orchestrator) updateMark(ctx context.Context, run *contracts.PortfolioRun, r *contracts.HoldingReview) {
	err := o.portfolioRepo.UpdateMark(ctx, run.PortfolioID, r.Ticker, r.CurrentPrice, r.NewConviction, r.Level)
	if err != nil {
		o.recordPersistence(run, err)
	}
}

// selectFinalists keeps the verdicts that proceed to tier 3. NEEDS_REVIEW
// stays behind for a human; REJECT is out.
func selectFinalists(verdicts []contracts.TriageVerdict) []contracts.TriageVerdict {
	finalists := make([]contracts.TriageVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Decision == contracts.DecisionPass || v.Decision == contracts.DecisionFastTrack {
			finalists = append(finalists, v)
		}
	}
	return finalists
}
