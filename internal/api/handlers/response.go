package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/zatekoja/provider-discovery/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithEmptyResults writes an error body that still carries the
// empty-result shape, so a caller can render its "no results" state without
// special-casing server failures.
func respondWithEmptyResults(w http.ResponseWriter, statusCode int, fields map[string]interface{}) {
	payload := map[string]interface{}{
		"providers":      []interface{}{},
		"provider_count": 0,
		"service_count":  0,
	}
	for k, v := range fields {
		payload[k] = v
	}
	respondWithJSON(w, statusCode, payload)
}

// respondWithServiceError maps an application error onto the HTTP surface.
// Configuration errors keep their diagnostic detail in the body; everything
// unclassified collapses to a generic 500. Server-side failures carry the
// empty-result envelope.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithEmptyResults(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeConfiguration:
		respondWithEmptyResults(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  appErr.Message,
			"detail": appErr.Detail,
		})
	case apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	default:
		respondWithEmptyResults(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "internal server error",
		})
	}
}
