package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError renders err as {"error": {...}}. Errors that are not AppErrors
// are reported as internal without leaking their text.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := AsAppError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	return json.NewEncoder(w).Encode(ErrorEnvelope{Error: appErr.response()})
}
