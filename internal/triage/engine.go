package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

// Config defines tier-2 triage parameters.
type Config struct {
	// FastTrackScore is the tier-1 score floor for FAST_TRACK.
	FastTrackScore float64
	// PassScore is the tier-1 score floor for PASS.
	PassScore float64
	// MaxFinalists truncates the PASS/FAST_TRACK output; overflow is
	// reclassified REJECT with an explicit reason.
	MaxFinalists int
}

// DefaultConfig returns the default triage configuration.
func DefaultConfig() Config {
	return Config{
		FastTrackScore: 70,
		PassScore:      55,
		MaxFinalists:   20,
	}
}

// Engine classifies tier-1 survivors into PASS / FAST_TRACK / REJECT /
// NEEDS_REVIEW using a priority-ordered rule table. The decision is a pure
// function of (tier-1 score, red flags, green flags); anything the table
// cannot classify lands in NEEDS_REVIEW, never a silent PASS or REJECT.
type Engine struct {
	config   Config
	research contracts.ResearchProvider
	logger   *logger.Logger
}

// NewEngine creates a new triage engine.
func NewEngine(config Config, research contracts.ResearchProvider, log *logger.Logger) *Engine {
	return &Engine{
		config:   config,
		research: research,
		logger:   log,
	}
}

// Triage fetches the qualitative bundle for each scored candidate and
// applies the rule table. The returned verdicts contain every input ticker:
// finalists (FAST_TRACK first, then tier-1 score descending), then the
// rest. A research fetch failure yields NEEDS_REVIEW for that ticker only.
func (e *Engine) Triage(ctx context.Context, scores []contracts.ScoreResult) ([]contracts.TriageVerdict, error) {
	verdicts := make([]contracts.TriageVerdict, 0, len(scores))

	for _, sc := range scores {
		bundle, err := e.research.Bundle(ctx, sc.Ticker)
		if err != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker": sc.Ticker,
				"error":  err.Error(),
			}).Warn("Research fetch failed, routing to review")

			verdicts = append(verdicts, contracts.TriageVerdict{
				Ticker:     sc.Ticker,
				Sector:     sc.Sector,
				Tier1Score: sc.Total,
				Decision:   contracts.DecisionNeedsReview,
				RedFlags: []contracts.Flag{{
					Reason: fmt.Sprintf("Qualitative data unavailable: %v", err),
					Major:  false,
				}},
				Reasoning: "Routed to review: qualitative checks could not be fetched",
			})
			continue
		}

		verdicts = append(verdicts, e.classify(sc, bundle))
	}

	e.sortVerdicts(verdicts)
	e.truncateFinalists(verdicts)

	counts := map[contracts.Decision]int{}
	for _, v := range verdicts {
		counts[v.Decision]++
	}
	e.logger.WithFields(map[string]interface{}{
		"input":        len(scores),
		"fast_track":   counts[contracts.DecisionFastTrack],
		"pass":         counts[contracts.DecisionPass],
		"reject":       counts[contracts.DecisionReject],
		"needs_review": counts[contracts.DecisionNeedsReview],
	}).Info("Triage completed")

	return verdicts, nil
}

// classify applies the priority-ordered rule table. First match wins.
func (e *Engine) classify(sc contracts.ScoreResult, bundle *contracts.QualitativeBundle) contracts.TriageVerdict {
	v := contracts.TriageVerdict{
		Ticker:     sc.Ticker,
		Sector:     sc.Sector,
		Tier1Score: sc.Total,
		GreenFlags: buildGreenFlags(bundle),
		RedFlags:   buildRedFlags(bundle),
	}

	majorRed := v.MajorRed()
	majorGreen := v.MajorGreen()

	switch {
	case majorRed >= 2:
		v.Decision = contracts.DecisionReject
		v.Reasoning = fmt.Sprintf("Rejected: %d major red flags (%s)", majorRed, flagSummary(v.RedFlags))

	case majorRed == 1 && majorGreen == 0:
		v.Decision = contracts.DecisionReject
		v.Reasoning = fmt.Sprintf("Rejected: unoffset major red flag (%s)", flagSummary(v.RedFlags))

	case sc.Total >= e.config.FastTrackScore && majorGreen >= 2 && majorRed == 0:
		v.Decision = contracts.DecisionFastTrack
		v.Reasoning = fmt.Sprintf("Fast-tracked: score %.1f with %d major green flags and no major red", sc.Total, majorGreen)

	case sc.Total >= e.config.PassScore && majorRed == 0:
		v.Decision = contracts.DecisionPass
		v.Reasoning = fmt.Sprintf("Passed: score %.1f with no major red flags", sc.Total)

	case len(v.RedFlags) > len(v.GreenFlags)+2:
		v.Decision = contracts.DecisionReject
		v.Reasoning = fmt.Sprintf("Rejected: red flags (%d) outweigh green (%d) beyond tolerance", len(v.RedFlags), len(v.GreenFlags))

	default:
		v.Decision = contracts.DecisionNeedsReview
		v.Reasoning = fmt.Sprintf("Routed to review: mixed signals (score %.1f, %d red / %d green)", sc.Total, len(v.RedFlags), len(v.GreenFlags))
	}

	return v
}

// sortVerdicts orders FAST_TRACK first, then by tier-1 score descending.
// Stable so equal entries keep candidate order.
func (e *Engine) sortVerdicts(verdicts []contracts.TriageVerdict) {
	sort.SliceStable(verdicts, func(i, j int) bool {
		fi := verdicts[i].Decision == contracts.DecisionFastTrack
		fj := verdicts[j].Decision == contracts.DecisionFastTrack
		if fi != fj {
			return fi
		}
		return verdicts[i].Tier1Score > verdicts[j].Tier1Score
	})
}

// truncateFinalists reclassifies qualified verdicts beyond MaxFinalists as
// REJECT. The overflow is explicit in the reasoning even though the ticker
// individually qualified.
func (e *Engine) truncateFinalists(verdicts []contracts.TriageVerdict) {
	if e.config.MaxFinalists <= 0 {
		return
	}

	finalists := 0
	for i := range verdicts {
		d := verdicts[i].Decision
		if d != contracts.DecisionFastTrack && d != contracts.DecisionPass {
			continue
		}

		finalists++
		if finalists > e.config.MaxFinalists {
			verdicts[i].Decision = contracts.DecisionReject
			verdicts[i].Reasoning = fmt.Sprintf("Rejected: exceeded finalist limit of %d (originally qualified)", e.config.MaxFinalists)
		}
	}
}

func flagSummary(flags []contracts.Flag) string {
	parts := make([]string, 0, len(flags))
	for _, f := range flags {
		if f.Major {
			parts = append(parts, f.Reason)
		}
	}
	return strings.Join(parts, "; ")
}
