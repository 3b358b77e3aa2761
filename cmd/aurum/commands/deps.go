package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/conviction"
	"github.com/wonny/aurum/internal/external/analyst"
	"github.com/wonny/aurum/internal/external/marketdata"
	"github.com/wonny/aurum/internal/external/research"
	"github.com/wonny/aurum/internal/pipeline"
	"github.com/wonny/aurum/internal/portfolio"
	"github.com/wonny/aurum/internal/rebalance"
	"github.com/wonny/aurum/internal/screener"
	"github.com/wonny/aurum/internal/scoring"
	"github.com/wonny/aurum/internal/triage"
	"github.com/wonny/aurum/pkg/config"
	"github.com/wonny/aurum/pkg/database"
	"github.com/wonny/aurum/pkg/httputil"
	"github.com/wonny/aurum/pkg/logger"
	"github.com/wonny/aurum/pkg/redis"
)

// app bundles everything a command needs. Commands build it once and defer
// Close.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
	rdb *redis.Client

	ledger        *pipeline.Ledger
	portfolioRepo *portfolio.Repository
	orchestrator  *pipeline.Orchestrator
}

// buildApp loads config and wires the full pipeline. Construction order
// follows the funnel: providers, stages, orchestrator.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(rdb, "aurum")

	// External collaborators
	metricProvider := marketdata.New(cfg.MarketData, log, cache)
	researchProvider := research.New(cfg.Research, httputil.New(log), cache, log)
	analysisProvider := analyst.New(cfg.Analyst, log)

	// Funnel stages
	scorer := scoring.NewScorer(log)

	batchScreener := screener.NewBatchScreener(screener.Config{
		MinScore:     cfg.Funnel.MinScore,
		TargetCount:  cfg.Funnel.TargetCount,
		MaxSectorPct: cfg.Funnel.MaxSectorPct,
		Concurrency:  cfg.Funnel.Concurrency,
	}, scorer, metricProvider, log)

	triageConfig := triage.DefaultConfig()
	triageConfig.MaxFinalists = cfg.Funnel.MaxFinalists
	triageEngine := triage.NewEngine(triageConfig, researchProvider, log)

	synthesizer := conviction.NewSynthesizer(conviction.Config{
		BatchSize: cfg.Funnel.AnalysisBatchSize,
	}, analysisProvider, conviction.NewRegexExtractor(), log)

	constructor := portfolio.NewConstructor(portfolio.Config{
		MaxHoldings:    cfg.Funnel.MaxHoldings,
		MinConviction:  cfg.Funnel.MinConviction,
		CashReservePct: cfg.Funnel.CashReservePct,
	}, log)

	rebalancer := rebalance.NewEngine(rebalance.Config{
		SellThreshold:     cfg.Funnel.SellThreshold,
		HoldThreshold:     cfg.Funnel.HoldThreshold,
		BuyThreshold:      cfg.Funnel.BuyThreshold,
		MaxSellsPerReview: cfg.Funnel.MaxSellsPerReview,
		MaxBuysPerReview:  cfg.Funnel.MaxBuysPerReview,
		MaxTurnoverPct:    cfg.Funnel.MaxTurnoverPct,
		MinPositionPct:    cfg.Funnel.MinPositionPct,
		MaxPositionPct:    cfg.Funnel.MaxPositionPct,
		TargetCashPct:     cfg.Funnel.CashReservePct,
	}, metricProvider, scorer, synthesizer, log)

	// Persistence + orchestration
	ledger := pipeline.NewLedger(db.Pool)
	portfolioRepo := portfolio.NewRepository(db.Pool)
	executor := rebalance.NewExecutor(portfolioRepo, log)

	orchestrator := pipeline.NewOrchestrator(
		cfg.Funnel,
		batchScreener,
		triageEngine,
		synthesizer,
		constructor,
		rebalancer,
		executor,
		ledger,
		portfolioRepo,
		log,
	)

	return &app{
		cfg:           cfg,
		log:           log,
		db:            db,
		rdb:           rdb,
		ledger:        ledger,
		portfolioRepo: portfolioRepo,
		orchestrator:  orchestrator,
	}, nil
}

// Close releases connections.
func (a *app) Close() {
	a.db.Close()
	if err := a.rdb.Close(); err != nil {
		a.log.WithError(err).Warn("Redis close failed")
	}
}

// readUniverse loads one ticker per line, skipping blanks and # comments.
func readUniverse(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	tickers := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe file %s is empty", path)
	}

	return tickers, nil
}

// parseStrategy validates the strategy flag.
func parseStrategy(raw string) (contracts.Strategy, error) {
	s := contracts.Strategy(strings.ToLower(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("strategy must be value, growth or balanced (got %q)", raw)
	}
	return s, nil
}
