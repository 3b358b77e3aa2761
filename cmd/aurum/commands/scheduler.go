package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/aurum/internal/contracts"
	"github.com/wonny/aurum/internal/scheduler"
	"github.com/wonny/aurum/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the recurring pipeline jobs",
	Long: `Starts the job scheduler:
  weekly_screen           - full funnel, Mondays 07:00
  daily_rebalance_review  - holdings review, weekdays 07:30

Example:
  go run ./cmd/aurum scheduler --universe universe.txt`,
	RunE: runScheduler,
}

var schedulerUniverseFile string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerUniverseFile, "universe", "universe.txt", "ticker universe file")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	universe, err := readUniverse(schedulerUniverseFile)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	strategy := contracts.Strategy(a.cfg.Funnel.Strategy)

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewScreenJob(a.orchestrator, portfolioID, strategy, universe, a.log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewRebalanceJob(a.orchestrator, portfolioID, universe, a.log)); err != nil {
		return err
	}

	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	sched.Stop()

	return nil
}
