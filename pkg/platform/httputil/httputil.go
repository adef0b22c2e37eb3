// Package httputil centralizes JSON response writing so every handler speaks
// the same envelope: errors are `{"message": ...}` with the status derived
// from the domain error code, matching what the portal frontend expects.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "medilink/pkg/domain-errors"
)

// Generic fallback shown when an error carries no safe user-facing message.
const genericErrorMessage = "Une erreur est survenue. Veuillez réessayer."

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Internal errors
// never leak details; the client gets the generic localized fallback.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	message := dErrors.MessageOf(err)
	if message == "" {
		message = genericErrorMessage
	}
	WriteJSON(w, status, map[string]string{"message": message})
}

// DecodeJSON decodes the request body into T. On malformed input it writes a
// 400 with the localized validation message and returns ok=false; the handler
// just returns.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Format incorrect"))
		return v, false
	}
	return v, true
}

// StatusOf maps a domain error code to an HTTP status. Conflicts map to 400
// rather than 409: the legacy registration API reported duplicate email/phone
// as a plain validation failure and the frontend matches on that.
func StatusOf(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeConflict:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
