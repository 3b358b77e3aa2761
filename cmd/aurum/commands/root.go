package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	portfolioID string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aurum",
	Short: "Aurum - conviction-driven stock screening pipeline",
	Long: `Aurum CLI

Four-tier decision funnel: quantitative scoring, rule-based triage,
conviction synthesis from qualitative analyses, and portfolio
construction, plus a rebalance review over existing holdings.

Usage:
  go run ./cmd/aurum [command]

Examples:
  go run ./cmd/aurum screen --universe universe.txt --strategy value
  go run ./cmd/aurum rebalance --portfolio main
  go run ./cmd/aurum api
  go run ./cmd/aurum scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portfolioID, "portfolio", "main", "portfolio id")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
