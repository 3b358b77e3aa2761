package screener

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/scoring"
	"github.com/wonny/aurum/pkg/logger"
)

// Config defines tier-1 screening parameters.
type Config struct {
	// MinScore drops candidates scoring below it after ranking input.
	MinScore float64
	// TargetCount is how many survivors the screen aims to pass to triage.
	TargetCount int
	// MaxSectorPct caps any one sector at ceil(TargetCount * MaxSectorPct)
	// admitted candidates.
	MaxSectorPct float64
	// Concurrency bounds in-flight provider fetches.
	Concurrency int
}

// DefaultConfig returns the default screening configuration.
func DefaultConfig() Config {
	return Config{
		MinScore:     55,
		TargetCount:  50,
		MaxSectorPct: 0.25,
		Concurrency:  8,
	}
}

// ProgressFunc is invoked after each ticker completes (scored or failed).
type ProgressFunc func(done, total int, ticker string)

// BatchScreener drives the scorer across a ticker universe. Fetches run
// under bounded concurrency; the provider client carries its own rate
// limiter. A ticker whose fetch fails is tallied and skipped — one bad
// ticker never aborts the batch.
type BatchScreener struct {
	config   Config
	scorer   *scoring.Scorer
	provider contracts.MetricProvider
	logger   *logger.Logger
}

// NewBatchScreener creates a new batch screener.
func NewBatchScreener(config Config, scorer *scoring.Scorer, provider contracts.MetricProvider, log *logger.Logger) *BatchScreener {
	return &BatchScreener{
		config:   config,
		scorer:   scorer,
		provider: provider,
		logger:   log,
	}
}

// Screen scores the universe and returns ranked, sector-capped survivors
// with suggested pre-conviction weights and the exclusion audit trail.
func (s *BatchScreener) Screen(ctx context.Context, tickers []string, strategy contracts.Strategy, progress ProgressFunc) (*contracts.ScreenResult, error) {
	result := &contracts.ScreenResult{
		Strategy: strategy,
		Weights:  make(map[string]float64),
		BySector: make(map[string]int),
	}

	scored, failed := s.scoreAll(ctx, tickers, strategy, progress)
	result.Scored = scored
	result.FailedTickers = failed
	result.Excluded.FetchFailed = len(failed)

	// Rank by total descending. The sort is stable so equal scores keep
	// their original candidate order, keeping the output deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Total > scored[j].Total
	})

	result.Selected = s.admit(scored, result)
	result.Weights = suggestWeights(result.Selected)

	for _, sc := range result.Selected {
		result.BySector[sc.Sector]++
	}

	s.logger.WithFields(map[string]interface{}{
		"universe":     len(tickers),
		"scored":       len(scored),
		"selected":     len(result.Selected),
		"fetch_failed": result.Excluded.FetchFailed,
		"low_score":    result.Excluded.LowScore,
		"sector_limit": result.Excluded.SectorLimit,
	}).Info("Screening completed")

	return result, nil
}

// scoreAll fetches and scores every ticker under bounded concurrency.
// Results keep the submitted ticker order.
func (s *BatchScreener) scoreAll(ctx context.Context, tickers []string, strategy contracts.Strategy, progress ProgressFunc) ([]contracts.ScoreResult, []string) {
	type slot struct {
		result contracts.ScoreResult
		err    error
	}

	slots := make([]slot, len(tickers))
	sem := semaphore.NewWeighted(int64(s.config.Concurrency))

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i, ticker := range tickers {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; remaining tickers are tallied as failed.
			slots[i].err = err
			continue
		}

		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			defer sem.Release(1)

			candidate, err := s.provider.Snapshot(ctx, ticker)
			if err != nil {
				s.logger.WithFields(map[string]interface{}{
					"ticker": ticker,
					"error":  err.Error(),
				}).Warn("Metric fetch failed, excluding ticker")
				slots[i].err = err
			} else {
				slots[i].result = s.scorer.Score(candidate, strategy)
			}

			mu.Lock()
			done++
			n := done
			mu.Unlock()

			if progress != nil {
				progress(n, len(tickers), ticker)
			}
		}(i, ticker)
	}

	wg.Wait()

	scored := make([]contracts.ScoreResult, 0, len(tickers))
	failed := make([]string, 0)
	for i, sl := range slots {
		if sl.err != nil {
			failed = append(failed, tickers[i])
			continue
		}
		scored = append(scored, sl.result)
	}

	return scored, failed
}

// admit walks the ranked list applying the minimum score filter and the
// per-sector cap, recording exclusion reasons as it goes.
func (s *BatchScreener) admit(ranked []contracts.ScoreResult, result *contracts.ScreenResult) []contracts.ScoreResult {
	sectorCap := int(math.Ceil(float64(s.config.TargetCount) * s.config.MaxSectorPct))
	sectorCount := make(map[string]int)

	selected := make([]contracts.ScoreResult, 0, s.config.TargetCount)

	for _, sc := range ranked {
		if len(selected) >= s.config.TargetCount {
			break
		}

		if sc.Total < s.config.MinScore {
			result.Excluded.LowScore++
			continue
		}

		if sectorCount[sc.Sector] >= sectorCap {
			result.Excluded.SectorLimit++
			continue
		}

		sectorCount[sc.Sector]++
		selected = append(selected, sc)
	}

	return selected
}

// suggestWeights produces the pre-conviction weight suggestion: an
// equal-weight base with a 20%-of-total score-proportional tilt. Weights
// sum to 1 by construction.
func suggestWeights(selected []contracts.ScoreResult) map[string]float64 {
	weights := make(map[string]float64, len(selected))
	if len(selected) == 0 {
		return weights
	}

	var totalScore float64
	for _, sc := range selected {
		totalScore += sc.Total
	}

	base := 0.8 / float64(len(selected))
	for _, sc := range selected {
		w := base
		if totalScore > 0 {
			w += 0.2 * sc.Total / totalScore
		} else {
			w += 0.2 / float64(len(selected))
		}
		weights[sc.Ticker] = w
	}

	return weights
}
