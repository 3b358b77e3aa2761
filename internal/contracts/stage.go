package contracts

// Pipeline tier definitions.
// Every log line, audit row and run snapshot uses these constants.
//
// Funnel flow:
//   T1 → T2 → T3 → T4
//   Scoring  Triage  Conviction  Construction / Rebalance

// Stage represents a funnel tier.
type Stage string

const (
	// StageScoring T1: quantitative multi-factor scoring of the universe.
	// Location: internal/scoring, internal/screener
	StageScoring Stage = "T1_SCORING"

	// StageTriage T2: rule-based triage of tier-1 survivors.
	// Location: internal/triage
	StageTriage Stage = "T2_TRIAGE"

	// StageConviction T3: deep conviction synthesis from analysis texts.
	// Location: internal/conviction
	StageConviction Stage = "T3_CONVICTION"

	// StageConstruction T4: portfolio construction from conviction results.
	// Location: internal/portfolio
	StageConstruction Stage = "T4_CONSTRUCTION"

	// StageRebalance T4R: rebalance review of an existing portfolio.
	// Location: internal/rebalance
	StageRebalance Stage = "T4_REBALANCE"
)

// String returns the stage name.
func (s Stage) String() string {
	return string(s)
}

// ShortName returns the abbreviated tier name (e.g. "T1").
func (s Stage) ShortName() string {
	switch s {
	case StageScoring:
		return "T1"
	case StageTriage:
		return "T2"
	case StageConviction:
		return "T3"
	case StageConstruction:
		return "T4"
	case StageRebalance:
		return "T4R"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all funnel stages in order.
func AllStages() []Stage {
	return []Stage{
		StageScoring,
		StageTriage,
		StageConviction,
		StageConstruction,
		StageRebalance,
	}
}

// Strategy selects the factor weight table used by scoring and conviction.
type Strategy string

const (
	StrategyValue    Strategy = "value"
	StrategyGrowth   Strategy = "growth"
	StrategyBalanced Strategy = "balanced"
)

// IsValid reports whether the strategy is one of the known tables.
func (s Strategy) IsValid() bool {
	return s == StrategyValue || s == StrategyGrowth || s == StrategyBalanced
}
