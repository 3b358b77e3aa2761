package conviction

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/pkg/logger"
)

// Config defines tier-3 synthesis parameters.
type Config struct {
	// BatchSize bounds how many tickers are synthesized concurrently;
	// each ticker already fans out five analysis calls.
	BatchSize int
}

// DefaultConfig returns the default synthesis configuration.
func DefaultConfig() Config {
	return Config{BatchSize: 4}
}

// Synthesizer turns qualitative analysis texts into a 0..100 conviction
// score. Signal extraction is tolerant of absence: any analysis that
// errors, times out or matches nothing degrades that component to its
// neutral baseline, so synthesis always completes for a submitted ticker.
type Synthesizer struct {
	config    Config
	provider  contracts.AnalysisProvider
	extractor contracts.SignalExtractor
	logger    *logger.Logger
}

// NewSynthesizer creates a new synthesizer.
func NewSynthesizer(config Config, provider contracts.AnalysisProvider, extractor contracts.SignalExtractor, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		config:    config,
		provider:  provider,
		extractor: extractor,
		logger:    log,
	}
}

// SynthesizeBatch runs tier-3 synthesis for every verdict, processing
// tickers in small concurrent batches to bound outstanding provider calls.
// Output keeps the input order.
func (s *Synthesizer) SynthesizeBatch(ctx context.Context, verdicts []contracts.TriageVerdict, strategy contracts.Strategy) []contracts.ConvictionResult {
	results := make([]contracts.ConvictionResult, len(verdicts))

	batch := s.config.BatchSize
	if batch <= 0 {
		batch = 1
	}

	var wg sync.WaitGroup
	slots := make(chan struct{}, batch)

	for i := range verdicts {
		slots <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-slots }()

			bundle := s.fetchAnalyses(ctx, verdicts[i].Ticker)
			results[i] = s.Score(&verdicts[i], bundle, strategy)
		}(i)
	}

	wg.Wait()
	return results
}

// fetchAnalyses requests the five analysis kinds for one ticker
// concurrently and joins them. A kind that errors is simply absent from
// the bundle.
func (s *Synthesizer) fetchAnalyses(ctx context.Context, ticker string) *contracts.AnalysisBundle {
	bundle := &contracts.AnalysisBundle{
		Ticker: ticker,
		Texts:  make(map[contracts.AnalysisKind]string),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, kind := range contracts.AllAnalysisKinds() {
		kind := kind
		g.Go(func() error {
			text, err := s.provider.Analyze(gctx, ticker, kind)
			if err != nil {
				s.logger.WithFields(map[string]interface{}{
					"ticker": ticker,
					"kind":   string(kind),
					"error":  err.Error(),
				}).Warn("Analysis fetch failed, using neutral default")
				return nil // degrade, never abort the join
			}

			if text != "" {
				mu.Lock()
				bundle.Texts[kind] = text
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return bundle
}

// Synthesize scores one ticker from its triage verdict and analysis
// bundle. Pure given its inputs.
func (s *Synthesizer) Synthesize(verdict *contracts.TriageVerdict, bundle *contracts.AnalysisBundle) contracts.ConvictionResult {
	dcf := s.extractor.Extract(contracts.AnalysisDCF, bundle.Text(contracts.AnalysisDCF))
	peer := s.extractor.Extract(contracts.AnalysisComparable, bundle.Text(contracts.AnalysisComparable))
	sent := s.extractor.Extract(contracts.AnalysisSentiment, bundle.Text(contracts.AnalysisSentiment))
	risk := s.extractor.Extract(contracts.AnalysisRisk, bundle.Text(contracts.AnalysisRisk))
	earn := s.extractor.Extract(contracts.AnalysisEarnings, bundle.Text(contracts.AnalysisEarnings))

	result := contracts.ConvictionResult{
		Ticker: verdict.Ticker,
		Sector: verdict.Sector,
	}

	result.Valuation = valuationScore(dcf.UpsidePct, peer.UpsidePct)
	result.Sentiment = sentimentScore(sent)
	result.Risk = riskComponentScore(risk.RiskFigure)
	result.Earnings = earningsScore(earn)
	result.Quality = qualityScore(verdict)
	result.CompositeUpside = compositeUpside(dcf.UpsidePct, peer.UpsidePct)

	result.BullFactors, result.BearFactors, result.RiskFactors = collectFactors(dcf, peer, sent, risk, earn)

	return result
}

// Finalize applies the strategy weight table, level bucket and position
// sizing to a component-scored result, and renders the reasoning text.
func (s *Synthesizer) Finalize(result *contracts.ConvictionResult, strategy contracts.Strategy, rawRisk *float64) {
	w := WeightsFor(strategy)
	result.Strategy = strategy
	result.Conviction = (result.Valuation*w.Valuation +
		result.Sentiment*w.Sentiment +
		result.Risk*w.Risk +
		result.Earnings*w.Earnings +
		result.Quality*w.Quality) / 100

	result.Level = contracts.LevelForScore(result.Conviction)
	result.SuggestedWeightPct, result.MaxWeightPct = positionSize(result.Level, rawRisk)
	result.Reasoning = renderReasoning(result)
}

// Score is the full per-ticker synthesis: extract, combine, weight, size.
func (s *Synthesizer) Score(verdict *contracts.TriageVerdict, bundle *contracts.AnalysisBundle, strategy contracts.Strategy) contracts.ConvictionResult {
	result := s.Synthesize(verdict, bundle)

	riskSignals := s.extractor.Extract(contracts.AnalysisRisk, bundle.Text(contracts.AnalysisRisk))
	s.Finalize(&result, strategy, riskSignals.RiskFigure)

	s.logger.WithFields(map[string]interface{}{
		"ticker":     result.Ticker,
		"conviction": result.Conviction,
		"level":      string(result.Level),
	}).Debug("Synthesized conviction")

	return result
}

// valuationScore maps the DCF-implied upside linearly from [-50%, +50%]
// to [0, 100], blending 60/40 with the peer-comparable upside when both
// are present. No figure at all scores the neutral 50.
func valuationScore(dcfUpside, peerUpside *float64) float64 {
	switch {
	case dcfUpside != nil && peerUpside != nil:
		return mapUpside(*dcfUpside)*0.6 + mapUpside(*peerUpside)*0.4
	case dcfUpside != nil:
		return mapUpside(*dcfUpside)
	case peerUpside != nil:
		return mapUpside(*peerUpside)
	default:
		return 50
	}
}

func mapUpside(upsidePct float64) float64 {
	if upsidePct < -50 {
		upsidePct = -50
	}
	if upsidePct > 50 {
		upsidePct = 50
	}
	return (upsidePct + 50)
}

// sentimentScore starts at the neutral 50, jumps to the label's level if
// one was found, then applies mention adjustments.
func sentimentScore(sig contracts.ExtractedSignals) float64 {
	score := 50.0

	switch sig.SentimentLabel {
	case "very bullish":
		score = 90
	case "bullish":
		score = 70
	case "bearish":
		score = 30
	case "very bearish":
		score = 10
	}

	if sig.StrongBuy {
		score += 10
	}
	if sig.SellMention {
		score -= 15
	}
	if sig.InsiderBuy {
		score += 5
	}

	return clampScore(score)
}

// riskComponentScore inverts the parsed 1-10 risk figure so that higher
// output means safer. No figure scores the neutral 50.
func riskComponentScore(figure *float64) float64 {
	if figure == nil {
		return 50
	}
	return (10 - *figure) / 9 * 100
}

// earningsScore starts at the neutral 50 and applies beat/miss, guidance
// and growth adjustments.
func earningsScore(sig contracts.ExtractedSignals) float64 {
	score := 50.0

	if sig.Beat {
		score += 15
	}
	if sig.Miss {
		score -= 15
	}
	if sig.GuidanceRaised {
		score += 10
	}
	if sig.GuidanceLower {
		score -= 10
	}
	if sig.GrowthMention {
		score += 5
	}

	return clampScore(score)
}

// qualityScore carries the tier-1 score forward, with a capped bonus for
// a fast-tracked triage verdict.
func qualityScore(verdict *contracts.TriageVerdict) float64 {
	score := verdict.Tier1Score
	if verdict.Decision == contracts.DecisionFastTrack {
		score += 10
	}
	return clampScore(score)
}

// compositeUpside blends DCF and peer upside 60/40 when both are present,
// uses whichever exists otherwise, and is nil when neither does.
func compositeUpside(dcfUpside, peerUpside *float64) *float64 {
	switch {
	case dcfUpside != nil && peerUpside != nil:
		v := *dcfUpside*0.6 + *peerUpside*0.4
		return &v
	case dcfUpside != nil:
		v := *dcfUpside
		return &v
	case peerUpside != nil:
		v := *peerUpside
		return &v
	default:
		return nil
	}
}

// collectFactors builds the deterministic bull/bear/risk factor lists from
// the extracted signals.
func collectFactors(dcf, peer, sent, risk, earn contracts.ExtractedSignals) (bull, bear, risks []string) {
	if dcf.UpsidePct != nil {
		if *dcf.UpsidePct > 0 {
			bull = append(bull, fmt.Sprintf("DCF implies %.1f%% upside", *dcf.UpsidePct))
		} else if *dcf.UpsidePct < 0 {
			bear = append(bear, fmt.Sprintf("DCF implies %.1f%% downside", -*dcf.UpsidePct))
		}
	}
	if peer.UpsidePct != nil {
		if *peer.UpsidePct > 0 {
			bull = append(bull, fmt.Sprintf("Peer comparables imply %.1f%% upside", *peer.UpsidePct))
		} else if *peer.UpsidePct < 0 {
			bear = append(bear, fmt.Sprintf("Peer comparables imply %.1f%% downside", -*peer.UpsidePct))
		}
	}

	switch sent.SentimentLabel {
	case "very bullish", "bullish":
		bull = append(bull, "Sentiment reads "+sent.SentimentLabel)
	case "very bearish", "bearish":
		bear = append(bear, "Sentiment reads "+sent.SentimentLabel)
	}
	if sent.StrongBuy {
		bull = append(bull, "Strong-buy mention in sentiment coverage")
	}
	if sent.SellMention {
		bear = append(bear, "Sell mention in sentiment coverage")
	}
	if sent.InsiderBuy {
		bull = append(bull, "Insider buying noted")
	}

	if earn.Beat {
		bull = append(bull, "Recent earnings beat")
	}
	if earn.Miss {
		bear = append(bear, "Recent earnings miss")
	}
	if earn.GuidanceRaised {
		bull = append(bull, "Guidance raised")
	}
	if earn.GuidanceLower {
		bear = append(bear, "Guidance lowered")
	}

	if risk.RiskFigure != nil {
		risks = append(risks, fmt.Sprintf("Risk analysis rates %.0f/10", *risk.RiskFigure))
		if *risk.RiskFigure >= highRiskFigure {
			risks = append(risks, "Elevated risk reduces position sizing")
		}
	}

	return bull, bear, risks
}

// renderReasoning builds the deterministic reasoning text from the numeric
// findings. Generated locally so the audit trail does not depend on the
// analysis collaborator's own prose.
func renderReasoning(r *contracts.ConvictionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conviction %.1f (%s) under %s weights: valuation %.1f, sentiment %.1f, risk %.1f, earnings %.1f, quality %.1f.",
		r.Conviction, r.Level, r.Strategy, r.Valuation, r.Sentiment, r.Risk, r.Earnings, r.Quality)

	if r.CompositeUpside != nil {
		fmt.Fprintf(&b, " Composite upside %+.1f%%.", *r.CompositeUpside)
	}

	if len(r.BullFactors) > 0 {
		fmt.Fprintf(&b, " Bull: %s.", strings.Join(r.BullFactors, "; "))
	}
	if len(r.BearFactors) > 0 {
		fmt.Fprintf(&b, " Bear: %s.", strings.Join(r.BearFactors, "; "))
	}
	if len(r.RiskFactors) > 0 {
		fmt.Fprintf(&b, " Risk: %s.", strings.Join(r.RiskFactors, "; "))
	}

	fmt.Fprintf(&b, " Sizing %.1f%% (max %.1f%%).", r.SuggestedWeightPct, r.MaxWeightPct)

	return b.String()
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
