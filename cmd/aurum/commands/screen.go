package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aurum/internal/pipeline"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the full screening funnel",
	Long: `Runs the four-tier funnel over a ticker universe:
scoring, triage, conviction synthesis and portfolio construction.
Every stage result is persisted under a new run id.

Example:
  go run ./cmd/aurum screen --universe universe.txt --strategy value`,
	RunE: runScreen,
}

var (
	screenUniverseFile string
	screenStrategy     string
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenUniverseFile, "universe", "universe.txt", "ticker universe file, one ticker per line")
	screenCmd.Flags().StringVar(&screenStrategy, "strategy", "balanced", "strategy (value|growth|balanced)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	strategy, err := parseStrategy(screenStrategy)
	if err != nil {
		return err
	}

	universe, err := readUniverse(screenUniverseFile)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.orchestrator.RunScreen(cmd.Context(), pipeline.ScreenRequest{
		PortfolioID: portfolioID,
		Strategy:    strategy,
		Universe:    universe,
	})
	if err != nil {
		return fmt.Errorf("screen run: %w", err)
	}

	fmt.Printf("Run %s completed in %.1fs\n", result.Run.ID, result.Duration.Seconds())
	for _, tier := range result.Run.Tiers {
		fmt.Printf("  %-4s %4d -> %d\n", tier.Stage.ShortName(), tier.Input, tier.Output)
	}

	fmt.Printf("\nTarget portfolio (%d positions, %.1f%% cash):\n",
		len(result.Target.Positions), result.Target.CashPct)
	for _, pos := range result.Target.Positions {
		fmt.Printf("  %-6s %5.2f%%  conviction %.1f (%s)\n",
			pos.Ticker, pos.WeightPct, pos.Conviction, pos.Level)
	}

	if len(result.Target.Rejected) > 0 {
		fmt.Printf("\nRejected %d candidates:\n", len(result.Target.Rejected))
		for _, rej := range result.Target.Rejected {
			fmt.Printf("  %-6s conviction %.1f: %s\n", rej.Ticker, rej.Conviction, rej.Reason)
		}
	}

	return nil
}
