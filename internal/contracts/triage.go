package contracts

// Decision is the tier-2 triage outcome.
//
// There is intentionally no separate MORE_INFO state: anything the rule
// table cannot classify lands in NEEDS_REVIEW and is routed to a human.
type Decision string

const (
	DecisionPass        Decision = "PASS"
	DecisionFastTrack   Decision = "FAST_TRACK"
	DecisionReject      Decision = "REJECT"
	DecisionNeedsReview Decision = "NEEDS_REVIEW"
)

// Flag is one qualitative observation about a ticker. Major flags drive the
// triage decision table; minor flags only participate in the count fallback.
type Flag struct {
	Reason string `json:"reason"`
	Major  bool   `json:"major"`
}

// TriageVerdict is the tier-2 output for one candidate.
type TriageVerdict struct {
	Ticker     string   `json:"ticker"`
	Sector     string   `json:"sector"`
	Tier1Score float64  `json:"tier1_score"`
	Decision   Decision `json:"decision"`
	GreenFlags []Flag   `json:"green_flags"`
	RedFlags   []Flag   `json:"red_flags"`
	Reasoning  string   `json:"reasoning"`
}

// MajorGreen counts the major green flags.
func (v *TriageVerdict) MajorGreen() int {
	return countMajor(v.GreenFlags)
}

// MajorRed counts the major red flags.
func (v *TriageVerdict) MajorRed() int {
	return countMajor(v.RedFlags)
}

func countMajor(flags []Flag) int {
	n := 0
	for _, f := range flags {
		if f.Major {
			n++
		}
	}
	return n
}
