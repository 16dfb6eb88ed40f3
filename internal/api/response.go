package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zkrizaj/hramba/internal/logging"
	"github.com/zkrizaj/hramba/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logging.Errorw("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps a store failure to an HTTP response. Domain errors
// carry their own status code and a message safe to show; anything
// else is logged and reported as an internal error.
func storeError(w http.ResponseWriter, err error) {
	var domainErr *store.Error
	if errors.As(err, &domainErr) {
		jsonError(w, domainErr.HTTPCode(), domainErr.Message)
		return
	}
	logging.Errorw("store operation failed", "error", err)
	jsonError(w, http.StatusInternalServerError, "internal server error")
}
