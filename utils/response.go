package utils

import (
	"encoding/json"
	"net/http"

	"ticketbari/apperr"
	"ticketbari/logger"
)

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithError maps err through apperr and writes {"error": msg}. Server
// faults are logged with the full error; the caller only sees a generic message.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Status(err)
	if code >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	RespondWithJSON(w, code, M{"error": apperr.Message(err)})
}

type M map[string]interface{}
