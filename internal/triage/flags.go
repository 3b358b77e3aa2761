package triage

import (
	"fmt"

	"github.com/wonny/aurum/internal/contracts"
)

// Flag thresholds. Major flags drive the decision table directly; minor
// flags only count in the imbalance fallback.
const (
	consensusBullishMin  = 70.0 // % bullish for a strong-consensus green
	consensusBearishMin  = 40.0 // % bearish for a negative-consensus red
	targetUpsideMin      = 20.0 // % upside for a high-target green
	targetDownsideMax    = -10.0
	lowBetaMax           = 1.0
	highBetaMin          = 1.5
	veryHighBetaMin      = 2.0
	highShortInterest    = 15.0
	extremeShortInterest = 25.0
	surpriseBeatMin      = 5.0
	surpriseMissMax      = -5.0
	ratingNetMin         = 2 // upgrade/downgrade imbalance
)

// buildGreenFlags derives the green flag list from the qualitative bundle.
func buildGreenFlags(b *contracts.QualitativeBundle) []contracts.Flag {
	var flags []contracts.Flag

	if b.ConsensusBullishPct != nil && *b.ConsensusBullishPct >= consensusBullishMin {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Strong analyst consensus (%.0f%% bullish)", *b.ConsensusBullishPct),
			Major:  true,
		})
	}

	if b.TargetUpsidePct != nil && *b.TargetUpsidePct > targetUpsideMin {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("High target upside (%.1f%%)", *b.TargetUpsidePct),
			Major:  true,
		})
	}

	if b.Beta != nil && *b.Beta < lowBetaMax {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Low beta (%.2f)", *b.Beta),
			Major:  false,
		})
	}

	if b.EarningsSurprisePct != nil && *b.EarningsSurprisePct > surpriseBeatMin {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Strong earnings beat (+%.1f%%)", *b.EarningsSurprisePct),
			Major:  true,
		})
	}

	if b.RecentUpgrades-b.RecentDowngrades > ratingNetMin {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Upgrade momentum (%d upgrades vs %d downgrades)", b.RecentUpgrades, b.RecentDowngrades),
			Major:  false,
		})
	}

	return flags
}

// buildRedFlags derives the red flag list from the qualitative bundle.
func buildRedFlags(b *contracts.QualitativeBundle) []contracts.Flag {
	var flags []contracts.Flag

	if b.ConsensusBearishPct != nil && *b.ConsensusBearishPct >= consensusBearishMin {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Negative analyst consensus (%.0f%% bearish)", *b.ConsensusBearishPct),
			Major:  true,
		})
	}

	if b.TargetUpsidePct != nil && *b.TargetUpsidePct < targetDownsideMax {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Price target below market (%.1f%%)", *b.TargetUpsidePct),
			Major:  true,
		})
	}

	if b.ShortInterestPct != nil {
		switch {
		case *b.ShortInterestPct > extremeShortInterest:
			flags = append(flags, contracts.Flag{
				Reason: fmt.Sprintf("Extreme short interest (%.1f%%)", *b.ShortInterestPct),
				Major:  true,
			})
		case *b.ShortInterestPct > highShortInterest:
			flags = append(flags, contracts.Flag{
				Reason: fmt.Sprintf("High short interest (%.1f%%)", *b.ShortInterestPct),
				Major:  false,
			})
		}
	}

	if b.Beta != nil {
		switch {
		case *b.Beta > veryHighBetaMin:
			flags = append(flags, contracts.Flag{
				Reason: fmt.Sprintf("Very high beta (%.2f)", *b.Beta),
				Major:  true,
			})
		case *b.Beta > highBetaMin:
			flags = append(flags, contracts.Flag{
				Reason: fmt.Sprintf("High beta (%.2f)", *b.Beta),
				Major:  false,
			})
		}
	}

	if b.EarningsSurprisePct != nil && *b.EarningsSurprisePct < surpriseMissMax {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Significant earnings miss (%.1f%%)", *b.EarningsSurprisePct),
			Major:  true,
		})
	}

	if b.ConsecutiveMisses >= 2 {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("%d consecutive earnings misses", b.ConsecutiveMisses),
			Major:  true,
		})
	}

	if b.RecentDowngrades-b.RecentUpgrades > ratingNetMin {
		flags = append(flags, contracts.Flag{
			Reason: fmt.Sprintf("Downgrade momentum (%d downgrades vs %d upgrades)", b.RecentDowngrades, b.RecentUpgrades),
			Major:  false,
		})
	}

	return flags
}
