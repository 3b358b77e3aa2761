package conviction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wonny/aurum/internal/contracts"
)

// RegexExtractor pulls numeric and semantic signals out of free-form
// analysis text. It never fails: text that matches nothing produces an
// empty signal set and the synthesizer scores on neutral defaults.
//
// It satisfies contracts.SignalExtractor so a structured-output provider
// can replace it without touching the scoring contract.
type RegexExtractor struct{}

// NewRegexExtractor creates a new extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

var (
	// "upside of 23%", "upside: 23%", "23.5% upside", "downside of 12%"
	upsideLeadRe  = regexp.MustCompile(`(?i)\b(upside|downside)\b\s*(?:of|:|is|at|around|near)?\s*(?:about|approximately|roughly|~)?\s*([+-]?\d+(?:\.\d+)?)\s*%`)
	upsideTrailRe = regexp.MustCompile(`(?i)([+-]?\d+(?:\.\d+)?)\s*%\s*(?:of\s+)?(upside|downside)\b`)

	// "risk score of 7/10", "7 / 10"
	riskFigureRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*/\s*10\b`)

	sentimentLabels = []struct {
		label string
	}{
		{"very bullish"},
		{"very bearish"},
		{"bullish"},
		{"bearish"},
	}
)

// Extract applies the extraction rules for one analysis text.
func (e *RegexExtractor) Extract(kind contracts.AnalysisKind, text string) contracts.ExtractedSignals {
	var out contracts.ExtractedSignals
	if strings.TrimSpace(text) == "" {
		return out
	}

	lower := strings.ToLower(text)

	out.UpsidePct = extractUpside(text)
	out.SentimentLabel = extractSentimentLabel(lower)

	out.StrongBuy = strings.Contains(lower, "strong buy")
	// "sell" alone would also match "sell-side"; require a standalone word.
	out.SellMention = containsWord(lower, "sell") && !strings.Contains(lower, "sell-side")
	out.InsiderBuy = strings.Contains(lower, "insider buying") || strings.Contains(lower, "insider purchases")

	if m := riskFigureRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 1 && v <= 10 {
			out.RiskFigure = &v
		}
	}

	out.Beat = containsWord(lower, "beat") || strings.Contains(lower, "beat expectations")
	out.Miss = containsWord(lower, "miss") || containsWord(lower, "missed")
	out.GuidanceRaised = strings.Contains(lower, "guidance raised") || strings.Contains(lower, "raised guidance") || strings.Contains(lower, "raised its guidance")
	out.GuidanceLower = strings.Contains(lower, "guidance lowered") || strings.Contains(lower, "lowered guidance") || strings.Contains(lower, "cut guidance")
	out.GrowthMention = containsWord(lower, "growth")

	return out
}

// extractUpside finds the first upside/downside percentage. A downside
// keyword flips the sign.
func extractUpside(text string) *float64 {
	var direction, number string

	if m := upsideLeadRe.FindStringSubmatch(text); m != nil {
		direction, number = m[1], m[2]
	} else if m := upsideTrailRe.FindStringSubmatch(text); m != nil {
		number, direction = m[1], m[2]
	} else {
		return nil
	}

	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil
	}

	if strings.EqualFold(direction, "downside") && v > 0 {
		v = -v
	}

	return &v
}

// extractSentimentLabel returns the strongest matching label. The "very"
// variants are checked first so "very bullish" is not reported as
// "bullish".
func extractSentimentLabel(lower string) string {
	for _, s := range sentimentLabels {
		if strings.Contains(lower, s.label) {
			return s.label
		}
	}
	return ""
}

// containsWord reports whether lower contains word as a standalone token.
func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)

		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}

		idx = end
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
