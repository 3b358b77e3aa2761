package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aurum/internal/api"
	"github.com/wonny/aurum/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the reporting API server",
	Long: `Starts the read-only reporting API.

Endpoints:
  GET /health
  GET /api/v1/runs/{id}
  GET /api/v1/runs/{id}/analyses
  GET /api/v1/runs/{id}/triage
  GET /api/v1/portfolios/{id}
  GET /api/v1/portfolios/{id}/holdings
  GET /api/v1/portfolios/{id}/runs

Example:
  go run ./cmd/aurum api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	runHandler := handlers.NewRunHandler(a.ledger, a.log)
	portfolioHandler := handlers.NewPortfolioHandler(a.portfolioRepo, a.log)
	router := api.NewRouter(runHandler, portfolioHandler, a.log)

	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
