package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"squadlink_server/services"
)

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes a {success:false, error} envelope, mapping the service
// sentinels onto HTTP statuses. retryID, when non-empty, tells the caller the
// write was queued for eventual delivery rather than lost.
func writeError(w http.ResponseWriter, err error, retryID string) {
	body := map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}
	if retryID != "" {
		body["retryId"] = retryID
	}
	writeJSON(w, statusForError(err), body)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrRequestNotPending):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
