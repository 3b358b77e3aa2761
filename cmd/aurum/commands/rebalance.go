package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/pipeline"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Review current holdings and recommend trades",
	Long: `Re-scores every holding against fresh data, classifies each as
HOLD, TRIM, SELL or ADD, optionally screens the universe for
replacements, and prints the trade plan. Use --execute to apply it.

Example:
  go run ./cmd/aurum rebalance --portfolio main
  go run ./cmd/aurum rebalance --universe universe.txt --execute`,
	RunE: runRebalance,
}

var (
	rebalanceUniverseFile string
	rebalanceStrategy     string
	rebalanceExecute      bool
)

func init() {
	rootCmd.AddCommand(rebalanceCmd)

	rebalanceCmd.Flags().StringVar(&rebalanceUniverseFile, "universe", "", "optional universe file for replacement candidates")
	rebalanceCmd.Flags().StringVar(&rebalanceStrategy, "strategy", "", "strategy override (value|growth|balanced)")
	rebalanceCmd.Flags().BoolVar(&rebalanceExecute, "execute", false, "apply the recommended trades")
}

func runRebalance(cmd *cobra.Command, args []string) error {
	var strategy contracts.Strategy
	if rebalanceStrategy != "" {
		s, err := parseStrategy(rebalanceStrategy)
		if err != nil {
			return err
		}
		strategy = s
	}

	var universe []string
	if rebalanceUniverseFile != "" {
		u, err := readUniverse(rebalanceUniverseFile)
		if err != nil {
			return err
		}
		universe = u
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.orchestrator.RunRebalance(cmd.Context(), pipeline.RebalanceRequest{
		PortfolioID: portfolioID,
		Strategy:    strategy,
		Universe:    universe,
		Execute:     rebalanceExecute,
	})
	if err != nil {
		return fmt.Errorf("rebalance run: %w", err)
	}

	plan := result.Plan
	fmt.Printf("Run %s completed in %.1fs (portfolio value %.2f)\n",
		result.Run.ID, result.Duration.Seconds(), plan.PortfolioValue)

	fmt.Printf("\nHolding reviews:\n")
	for _, review := range plan.Reviews {
		fmt.Printf("  %-6s %-4s conviction %.1f -> %.1f  weight %.2f%%  %s\n",
			review.Ticker, review.Action, review.PreviousConviction,
			review.NewConviction, review.WeightPct, review.Reasoning)
	}

	fmt.Printf("\nTrades (turnover %.1f%%):\n", plan.TurnoverPct)
	if len(plan.Trades) == 0 {
		fmt.Println("  none")
	}
	for _, trade := range plan.Trades {
		fmt.Printf("  %-4s %-6s %.2f @ %.2f (%.2f) - %s\n",
			trade.Side, trade.Ticker, trade.Shares, trade.Price, trade.Value, trade.Reason)
	}

	if result.Execution != nil {
		fmt.Printf("\nExecuted: %d applied, %d failed\n",
			len(result.Execution.Applied), len(result.Execution.Failed))
	}

	return nil
}
