package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and current holdings",
	Long: `Prints the most recent pipeline runs for the portfolio and its
current positions.

Example:
  go run ./cmd/aurum status --portfolio main`,
	RunE: runStatus,
}

var statusLimit int

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	p, err := a.portfolioRepo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}

	fmt.Printf("Portfolio %s (%s, strategy %s)\n", p.ID, p.Name, p.Strategy)
	fmt.Printf("Cash: %.2f\n\n", p.Cash)

	holdings, err := a.portfolioRepo.GetHoldings(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}

	fmt.Printf("Holdings (%d):\n", len(holdings))
	var total float64
	for _, h := range holdings {
		total += h.MarketValue()
		fmt.Printf("  %-6s %10.2f sh @ %8.2f  value %12.2f  conviction %.1f (%s)\n",
			h.Ticker, h.Shares, h.CurrentPrice, h.MarketValue(), h.LastConviction, h.LastLevel)
	}
	fmt.Printf("Total market value: %.2f\n\n", total)

	runs, err := a.ledger.ListRuns(ctx, portfolioID, statusLimit)
	if err != nil {
		return fmt.Errorf("load runs: %w", err)
	}

	fmt.Printf("Recent runs (%d):\n", len(runs))
	for _, run := range runs {
		line := fmt.Sprintf("  %s  %-9s  %s", run.StartedAt.Format("2006-01-02 15:04"), run.Status, run.ID)
		if run.Error != "" {
			line += "  error: " + run.Error
		}
		fmt.Println(line)
		for _, tier := range run.Tiers {
			fmt.Printf("      %-4s %4d -> %d\n", tier.Stage.ShortName(), tier.Input, tier.Output)
		}
	}

	return nil
}
