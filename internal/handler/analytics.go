package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/playtrack/internal/service"
)

// AnalyticsHandler serves the caller's personal play statistics.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	logger    *slog.Logger
}

func NewAnalyticsHandler(analytics *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// HTTP: GET /api/analytics/overview
func (h *AnalyticsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	overview, err := h.analytics.GetOverview(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// HTTP: GET /api/analytics/games
func (h *AnalyticsHandler) HandleGameStats(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	stats, err := h.analytics.GetGameStats(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HTTP: GET /api/analytics/genres
func (h *AnalyticsHandler) HandleGenres(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	genres, err := h.analytics.GetGenreBreakdown(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": genres})
}
