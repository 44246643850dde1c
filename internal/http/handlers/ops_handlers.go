package handlers

import (
	"log/slog"
	"net/http"
)

// HealthHandler godoc
// @Summary Liveness check
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// StatsHandler godoc
// @Summary Live view and push statistics
// @Tags ops
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Views: service.Stats()}
	if hub != nil {
		resp.Push = hub.Stats()
	}
	if breaker != nil {
		resp.Breaker = breaker.BreakerState()
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
