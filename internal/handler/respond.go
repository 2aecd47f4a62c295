package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gahigi/api/internal/validation"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// isInputError reports whether err describes a bad request payload. Every
// other failure is internal and must not reach the response body.
func isInputError(err error) bool {
	var invalid validation.Error
	return errors.As(err, &invalid)
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
