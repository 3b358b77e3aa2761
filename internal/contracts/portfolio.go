package contracts

import "time"

// Portfolio is the account-level record positions hang off.
type Portfolio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Strategy  Strategy  `json:"strategy"`
	Cash      float64   `json:"cash"`
	CreatedAt time.Time `json:"created_at"`
}

// Holding is one position in a portfolio. Unique per (portfolio, ticker);
// shares are always positive — a sell that would hit zero removes the row.
type Holding struct {
	PortfolioID    string          `json:"portfolio_id"`
	Ticker         string          `json:"ticker"`
	Sector         string          `json:"sector"`
	Shares         float64         `json:"shares"`
	AvgCost        float64         `json:"avg_cost"` // running weighted average, not FIFO lots
	CurrentPrice   float64         `json:"current_price"`
	LastConviction float64         `json:"last_conviction"`
	LastLevel      ConvictionLevel `json:"last_level"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MarketValue returns shares times current price.
func (h *Holding) MarketValue() float64 {
	return h.Shares * h.CurrentPrice
}

// TradeSide distinguishes transaction directions.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Transaction is an immutable trade log entry linked to the run that
// produced it.
type Transaction struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	RunID       string    `json:"run_id"`
	Ticker      string    `json:"ticker"`
	Side        TradeSide `json:"side"`
	Shares      float64   `json:"shares"`
	Price       float64   `json:"price"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// TargetPosition is one admitted candidate in a constructed portfolio.
type TargetPosition struct {
	Ticker     string          `json:"ticker"`
	Sector     string          `json:"sector"`
	WeightPct  float64         `json:"weight_pct"`
	Conviction float64         `json:"conviction"`
	Level      ConvictionLevel `json:"level"`
	Reason     string          `json:"reason"`
}

// CandidateRejection records why a scored candidate was not admitted.
type CandidateRejection struct {
	Ticker     string  `json:"ticker"`
	Conviction float64 `json:"conviction"`
	Reason     string  `json:"reason"` // "below conviction threshold" / "portfolio full"
}

// TargetPortfolio is the construction output: final positions with
// normalized weights plus the rejection audit trail.
type TargetPortfolio struct {
	PortfolioID string               `json:"portfolio_id"`
	Strategy    Strategy             `json:"strategy"`
	Positions   []TargetPosition     `json:"positions"`
	Rejected    []CandidateRejection `json:"rejected,omitempty"`
	CashPct     float64              `json:"cash_pct"`
	CreatedAt   time.Time            `json:"created_at"`
}

// TotalWeightPct sums the position weights.
func (t *TargetPortfolio) TotalWeightPct() float64 {
	var sum float64
	for _, p := range t.Positions {
		sum += p.WeightPct
	}
	return sum
}
