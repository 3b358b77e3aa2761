package contracts

import "context"

// MetricProvider supplies point-in-time metric snapshots. Implementations
// may return snapshots with nil fields; a returned error means the ticker
// could not be fetched at all and is tallied as failed by the caller.
type MetricProvider interface {
	Snapshot(ctx context.Context, ticker string) (*Candidate, error)
}

// ResearchProvider supplies the tier-2 qualitative check bundle.
type ResearchProvider interface {
	Bundle(ctx context.Context, ticker string) (*QualitativeBundle, error)
}

// AnalysisProvider supplies free-form analysis text for one ticker and
// kind. An empty string with nil error means the provider had nothing to
// say; the synthesizer falls back to neutral defaults either way.
type AnalysisProvider interface {
	Analyze(ctx context.Context, ticker string, kind AnalysisKind) (string, error)
}

// SignalExtractor turns one analysis text into the numeric/semantic signals
// the synthesizer scores on. Isolated behind an interface so the regex
// extraction can be swapped for a structured-output provider without
// touching the scoring contract.
type SignalExtractor interface {
	Extract(kind AnalysisKind, text string) ExtractedSignals
}

// ExtractedSignals is what the extractor found in one analysis text. All
// pointer fields are nil when the text carried no such signal.
type ExtractedSignals struct {
	UpsidePct      *float64 // signed percent, e.g. +23.5 or -12
	SentimentLabel string   // "very bullish", "bullish", "bearish", "very bearish" or ""
	StrongBuy      bool
	SellMention    bool
	InsiderBuy     bool
	RiskFigure     *float64 // parsed "X/10"
	Beat           bool
	Miss           bool
	GuidanceRaised bool
	GuidanceLower  bool
	GrowthMention  bool
}
