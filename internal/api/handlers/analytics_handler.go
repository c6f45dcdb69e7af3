package handlers

import (
	"net/http"

	"github.com/zatekoja/provider-discovery/internal/domain/repositories"
)

const defaultZeroResultLimit = 20

// AnalyticsHandler exposes search analytics for diagnostics
type AnalyticsHandler struct {
	analytics repositories.SearchAnalyticsRepository
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics repositories.SearchAnalyticsRepository) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// ZeroResultQueries handles GET /api/analytics/zero-result-queries
func (h *AnalyticsHandler) ZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultZeroResultLimit)

	queries, err := h.analytics.ZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load zero-result queries")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}
