package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ticketbari/apperr"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads a JSON body into v. Malformed or oversized bodies are
// validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body: %w", apperr.ErrValidation)
		}
		return fmt.Errorf("invalid request body: %v: %w", err, apperr.ErrValidation)
	}
	return nil
}
