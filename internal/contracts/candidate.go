package contracts

// MetricSnapshot is an immutable point-in-time view of a ticker's
// fundamentals and quote-derived figures. Fields are pointers because the
// market-data provider may return any of them as null; scoring degrades to
// neutral defaults instead of failing.
type MetricSnapshot struct {
	PE            *float64 `json:"pe,omitempty"`
	PB            *float64 `json:"pb,omitempty"`
	PS            *float64 `json:"ps,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"` // percent
	ProfitMargin  *float64 `json:"profit_margin,omitempty"`  // percent
	ROE           *float64 `json:"roe,omitempty"`            // percent
	CurrentRatio  *float64 `json:"current_ratio,omitempty"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"` // percent YoY
	EPSGrowth     *float64 `json:"eps_growth,omitempty"`     // percent YoY
	Beta          *float64 `json:"beta,omitempty"`
	Change52W     *float64 `json:"change_52w,omitempty"` // percent
	Price         *float64 `json:"price,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
}

// Candidate is one ticker entering the funnel with its metric snapshot.
type Candidate struct {
	Ticker  string         `json:"ticker"`
	Sector  string         `json:"sector"`
	Metrics MetricSnapshot `json:"metrics"`
}

// QualitativeBundle carries the tier-2 qualitative check inputs for one
// ticker. Pointer fields may be nil when the research provider had no data;
// the triage engine treats absent fields as "no flag" rather than an error.
type QualitativeBundle struct {
	Ticker              string   `json:"ticker"`
	ConsensusBullishPct *float64 `json:"consensus_bullish_pct,omitempty"` // 0..100
	ConsensusBearishPct *float64 `json:"consensus_bearish_pct,omitempty"` // 0..100
	TargetUpsidePct     *float64 `json:"target_upside_pct,omitempty"`     // signed percent vs price
	ShortInterestPct    *float64 `json:"short_interest_pct,omitempty"`
	Beta                *float64 `json:"beta,omitempty"`
	EarningsSurprisePct *float64 `json:"earnings_surprise_pct,omitempty"` // last quarter, signed
	ConsecutiveMisses   int      `json:"consecutive_misses"`
	RecentUpgrades      int      `json:"recent_upgrades"`
	RecentDowngrades    int      `json:"recent_downgrades"`
}

// AnalysisKind names one of the five qualitative analysis texts requested
// from the analysis collaborator for a tier-3 candidate.
type AnalysisKind string

const (
	AnalysisDCF        AnalysisKind = "dcf"
	AnalysisComparable AnalysisKind = "comparable"
	AnalysisSentiment  AnalysisKind = "sentiment"
	AnalysisRisk       AnalysisKind = "risk"
	AnalysisEarnings   AnalysisKind = "earnings"
)

// AllAnalysisKinds returns the five analysis kinds in request order.
func AllAnalysisKinds() []AnalysisKind {
	return []AnalysisKind{
		AnalysisDCF,
		AnalysisComparable,
		AnalysisSentiment,
		AnalysisRisk,
		AnalysisEarnings,
	}
}

// AnalysisBundle holds whatever analysis texts were obtained for a ticker.
// A kind that errored or timed out is simply absent.
type AnalysisBundle struct {
	Ticker string                  `json:"ticker"`
	Texts  map[AnalysisKind]string `json:"texts"`
}

// Text returns the analysis text for kind, or "" when absent.
func (b *AnalysisBundle) Text(kind AnalysisKind) string {
	if b == nil || b.Texts == nil {
		return ""
	}
	return b.Texts[kind]
}
