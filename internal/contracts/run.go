package contracts

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TierCount records how many tickers entered and left one funnel tier.
type TierCount struct {
	Stage  Stage `json:"stage"`
	Input  int   `json:"input"`
	Output int   `json:"output"`
}

// PortfolioRun is the audit record for one pipeline invocation. It is
// append-only until a terminal status is written.
type PortfolioRun struct {
	ID          string      `json:"id"`
	PortfolioID string      `json:"portfolio_id"`
	Strategy    Strategy    `json:"strategy"`
	Status      RunStatus   `json:"status"`
	Tiers       []TierCount `json:"tiers"`
	Error       string      `json:"error,omitempty"`

	// ConfigSnapshot is the serialized funnel config at run start, kept so
	// any result can be reproduced later.
	ConfigSnapshot []byte `json:"config_snapshot,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RecordTier appends a tier count to the run.
func (r *PortfolioRun) RecordTier(stage Stage, input, output int) {
	r.Tiers = append(r.Tiers, TierCount{Stage: stage, Input: input, Output: output})
}

// IsTerminal reports whether the run reached a final status.
func (r *PortfolioRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}
