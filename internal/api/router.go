package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/aurum/internal/api/handlers"
	"github.com/wonny/aurum/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(runHandler *handlers.RunHandler, portfolioHandler *handlers.PortfolioHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Run ledger
	api.HandleFunc("/runs/{id}", runHandler.GetRun).Methods("GET")
	api.HandleFunc("/runs/{id}/analyses", runHandler.GetAnalyses).Methods("GET")
	api.HandleFunc("/runs/{id}/triage", runHandler.GetTriageDecisions).Methods("GET")

	// Portfolio state
	api.HandleFunc("/portfolios/{id}", portfolioHandler.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolios/{id}/holdings", portfolioHandler.GetHoldings).Methods("GET")
	api.HandleFunc("/portfolios/{id}/runs", runHandler.ListRuns).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "aurum-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
