package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/aurum/internal/pipeline"
	"github.com/wonny/aurum/pkg/logger"
)

// RunHandler serves the pipeline run ledger.
type RunHandler struct {
	ledger *pipeline.Ledger
	logger *logger.Logger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(ledger *pipeline.Ledger, log *logger.Logger) *RunHandler {
	return &RunHandler{
		ledger: ledger,
		logger: log,
	}
}

// GetRun returns one run with its tier counts.
// GET /api/v1/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.ledger.GetRun(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Warn("Run lookup failed")
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// ListRuns returns the most recent runs for a portfolio.
// GET /api/v1/portfolios/{id}/runs?limit=20
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	portfolioID := mux.Vars(r)["id"]

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondError(w, http.StatusBadRequest, "limit must be 1-200")
			return
		}
		limit = n
	}

	runs, err := h.ledger.ListRuns(r.Context(), portfolioID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Run list failed")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio_id": portfolioID,
		"count":        len(runs),
		"runs":         runs,
	})
}

// GetAnalyses returns every persisted conviction payload for a run.
// GET /api/v1/runs/{id}/analyses
func (h *RunHandler) GetAnalyses(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	analyses, err := h.ledger.GetAnalyses(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Analysis fetch failed")
		respondError(w, http.StatusInternalServerError, "failed to load analyses")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   id,
		"count":    len(analyses),
		"analyses": analyses,
	})
}

// GetTriageDecisions returns the tier-2 audit rows for a run.
// GET /api/v1/runs/{id}/triage
func (h *RunHandler) GetTriageDecisions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	decisions, err := h.ledger.GetTriageDecisions(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Triage fetch failed")
		respondError(w, http.StatusInternalServerError, "failed to load triage decisions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    id,
		"count":     len(decisions),
		"decisions": decisions,
	})
}
