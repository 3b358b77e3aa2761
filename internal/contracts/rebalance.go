package contracts

import "time"

// RebalanceAction classifies what a review recommends for one holding.
type RebalanceAction string

const (
	ActionHold RebalanceAction = "HOLD"
	ActionTrim RebalanceAction = "TRIM"
	ActionSell RebalanceAction = "SELL"
	ActionAdd  RebalanceAction = "ADD"
)

// HoldingReview is the re-scored state of one current holding.
type HoldingReview struct {
	Ticker             string          `json:"ticker"`
	Sector             string          `json:"sector"`
	Shares             float64         `json:"shares"`
	CurrentPrice       float64         `json:"current_price"`
	WeightPct          float64         `json:"weight_pct"`
	PreviousConviction float64         `json:"previous_conviction"`
	NewConviction      float64         `json:"new_conviction"`
	ConvictionDelta    float64         `json:"conviction_delta"`
	Level              ConvictionLevel `json:"level"`
	Action             RebalanceAction `json:"action"`
	Reasoning          string          `json:"reasoning"`
}

// TradeRecommendation is one proposed trade, sized at recommendation time.
type TradeRecommendation struct {
	Ticker string    `json:"ticker"`
	Sector string    `json:"sector"`
	Side   TradeSide `json:"side"`
	Shares float64   `json:"shares"`
	Price  float64   `json:"price"`
	Value  float64   `json:"value"`
	Reason string    `json:"reason"`
}

// RebalancePlan is the full review output: per-holding verdicts, vetted
// replacement candidates and the ordered trade list. Turnover is reported
// for the operator, not hard-enforced.
type RebalancePlan struct {
	PortfolioID    string                `json:"portfolio_id"`
	RunID          string                `json:"run_id"`
	Strategy       Strategy              `json:"strategy"`
	PortfolioValue float64               `json:"portfolio_value"`
	Reviews        []HoldingReview       `json:"reviews"`
	NewCandidates  []ConvictionResult    `json:"new_candidates,omitempty"`
	Trades         []TradeRecommendation `json:"trades"`
	TurnoverPct    float64               `json:"turnover_pct"`
	RemainingCash  float64               `json:"remaining_cash"`
	CreatedAt      time.Time             `json:"created_at"`
}
