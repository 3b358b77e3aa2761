package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

// Config defines portfolio construction parameters.
type Config struct {
	// MaxHoldings caps the number of admitted positions.
	MaxHoldings int
	// MinConviction is the admission floor.
	MinConviction float64
	// CashReservePct is held back from the weight budget.
	CashReservePct float64
}

// DefaultConfig returns the default construction configuration.
func DefaultConfig() Config {
	return Config{
		MaxHoldings:    15,
		MinConviction:  50,
		CashReservePct: 5,
	}
}

// Constructor builds the target portfolio from tier-3 conviction results.
// Admission is conviction-descending; every rejected candidate carries an
// explicit reason — nothing is silently dropped.
type Constructor struct {
	config Config
	logger *logger.Logger
}

// NewConstructor creates a new portfolio constructor.
func NewConstructor(config Config, log *logger.Logger) *Constructor {
	return &Constructor{
		config: config,
		logger: log,
	}
}

// Construct ranks candidates, admits under the holding cap and conviction
// floor, then normalizes weights into the final position set.
func (c *Constructor) Construct(ctx context.Context, portfolioID string, strategy contracts.Strategy, candidates []contracts.ConvictionResult) (*contracts.TargetPortfolio, error) {
	target := &contracts.TargetPortfolio{
		PortfolioID: portfolioID,
		Strategy:    strategy,
		Positions:   make([]contracts.TargetPosition, 0, c.config.MaxHoldings),
		CashPct:     c.config.CashReservePct,
		CreatedAt:   time.Now(),
	}

	ranked := make([]contracts.ConvictionResult, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Conviction > ranked[j].Conviction
	})

	admitted := make([]contracts.ConvictionResult, 0, c.config.MaxHoldings)
	for _, cand := range ranked {
		if cand.Conviction < c.config.MinConviction {
			target.Rejected = append(target.Rejected, contracts.CandidateRejection{
				Ticker:     cand.Ticker,
				Conviction: cand.Conviction,
				Reason:     "below conviction threshold",
			})
			continue
		}

		if len(admitted) >= c.config.MaxHoldings {
			target.Rejected = append(target.Rejected, contracts.CandidateRejection{
				Ticker:     cand.Ticker,
				Conviction: cand.Conviction,
				Reason:     "portfolio full",
			})
			continue
		}

		admitted = append(admitted, cand)
	}

	if len(admitted) == 0 {
		c.logger.Warn("No candidates admitted to portfolio")
		return target, nil
	}

	weights := c.normalizeWeights(admitted)

	for i, cand := range admitted {
		target.Positions = append(target.Positions, contracts.TargetPosition{
			Ticker:     cand.Ticker,
			Sector:     cand.Sector,
			WeightPct:  weights[i],
			Conviction: cand.Conviction,
			Level:      cand.Level,
			Reason:     fmt.Sprintf("Admitted at conviction %.1f (%s)", cand.Conviction, cand.Level),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"portfolio_id": portfolioID,
		"positions":    len(target.Positions),
		"rejected":     len(target.Rejected),
		"total_weight": target.TotalWeightPct(),
	}).Info("Portfolio constructed")

	return target, nil
}

// normalizeWeights rescales the suggested weights proportionally to the
// investable budget, then clamps each to its own max weight. The clamp
// runs after the rescale so a top performer is not penalized for the
// excess of the rest; clamping may leave the total under budget, never
// over.
func (c *Constructor) normalizeWeights(admitted []contracts.ConvictionResult) []float64 {
	budget := 100 - c.config.CashReservePct

	var sum float64
	for _, cand := range admitted {
		sum += cand.SuggestedWeightPct
	}

	weights := make([]float64, len(admitted))
	for i, cand := range admitted {
		w := cand.SuggestedWeightPct
		if sum > 0 {
			w = w / sum * budget
		} else {
			w = budget / float64(len(admitted))
		}

		if w > cand.MaxWeightPct {
			w = cand.MaxWeightPct
		}
		weights[i] = w
	}

	return weights
}
