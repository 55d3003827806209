package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"fieldops/workforce-dashboard/internal/service"

	"go.uber.org/zap"
)

type DashboardHandler struct {
	service *service.DashboardService
	logger  *zap.Logger
}

func NewDashboardHandler(service *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
	}
}

// GetSummaries returns the last computed per-project summaries
func (h *DashboardHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summaries := h.service.Summaries()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// Refresh triggers a full pipeline run. A run already in progress is not
// interrupted; the caller gets a 409 instead.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.service.Refresh(r.Context()); err != nil {
		if errors.Is(err, service.ErrRefreshInFlight) {
			http.Error(w, "Refresh already in progress", http.StatusConflict)
			return
		}
		h.logger.Error("Refresh failed", zap.Error(err))
		http.Error(w, "Refresh failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"refreshed"}`))
}
