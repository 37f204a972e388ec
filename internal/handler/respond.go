package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appErrors.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, appErrors.ErrNoRecipients):
		respondError(w, http.StatusBadRequest, err.Error())
	case appErrors.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
