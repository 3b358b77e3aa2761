package contracts

// ScoreResult is the tier-1 output for one candidate: five component scores
// on a 0..100 scale plus the strategy-weighted total. It is fully
// reproducible from the candidate's metric snapshot and the strategy.
type ScoreResult struct {
	Ticker   string   `json:"ticker"`
	Sector   string   `json:"sector"`
	Strategy Strategy `json:"strategy"`

	Value    float64 `json:"value"`
	Quality  float64 `json:"quality"`
	Risk     float64 `json:"risk"`
	Growth   float64 `json:"growth"`
	Momentum float64 `json:"momentum"`

	Total float64 `json:"total"`
}

// ScreenExclusion counts why scored candidates were dropped before triage.
type ScreenExclusion struct {
	LowScore    int `json:"low_score"`
	SectorLimit int `json:"sector_limit"`
	FetchFailed int `json:"fetch_failed"`
}

// ScreenResult is the batch screener output: ranked survivors with suggested
// pre-conviction weights, plus the audit trail of what was excluded and why.
type ScreenResult struct {
	Strategy   Strategy           `json:"strategy"`
	Scored     []ScoreResult      `json:"scored"`
	Selected   []ScoreResult      `json:"selected"`
	Weights    map[string]float64 `json:"weights"` // ticker -> suggested weight, sums to 1
	BySector   map[string]int     `json:"by_sector"`
	Excluded   ScreenExclusion    `json:"excluded"`
	FailedTickers []string        `json:"failed_tickers,omitempty"`
}
