package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/aurum/internal/portfolio"
	"github.com/wonny/aurum/pkg/logger"
)

// PortfolioHandler serves current portfolio state.
type PortfolioHandler struct {
	repo   *portfolio.Repository
	logger *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(repo *portfolio.Repository, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		repo:   repo,
		logger: log,
	}
}

// GetPortfolio returns the portfolio record.
// GET /api/v1/portfolios/{id}
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	p, err := h.repo.GetPortfolio(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "portfolio not found")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// GetHoldings returns the current positions with market values.
// GET /api/v1/portfolios/{id}/holdings
func (h *PortfolioHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	holdings, err := h.repo.GetHoldings(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Holdings fetch failed")
		respondError(w, http.StatusInternalServerError, "failed to load holdings")
		return
	}

	var totalValue float64
	for _, holding := range holdings {
		totalValue += holding.MarketValue()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio_id": id,
		"count":        len(holdings),
		"total_value":  totalValue,
		"holdings":     holdings,
	})
}
