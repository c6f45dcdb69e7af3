package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/provider-discovery/internal/domain/entities"
	"github.com/zatekoja/provider-discovery/internal/infrastructure/observability"
)

// SearchEngine is the engine surface the handler needs.
type SearchEngine interface {
	Search(ctx context.Context, req *entities.SearchRequest) (*entities.SearchResponse, error)
}

// SearchHandler handles provider search requests
type SearchHandler struct {
	engine SearchEngine
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(engine SearchEngine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /api/providers/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req entities.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.engine.Search(r.Context(), &req)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().
			Err(err).
			Str("query", req.Query).
			Msg("Search request failed")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
