// Package shared holds the response helpers the handlers write through.
// Message text is part of the API contract; clients assert on exact strings.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "uidtrust/pkg/domain-errors"
)

// StatusBody is the {status, message} shape the state-machine endpoints
// respond with.
type StatusBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// WriteError translates a domain error into its HTTP response. Untyped
// errors degrade to a generic 500 and never leak internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.HTTPStatus(code), StatusBody{
		Status:  "error",
		Message: dErrors.MessageOf(err),
	})
}

// WriteSuccess writes a 200 {status:"success"} body.
func WriteSuccess(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, StatusBody{Status: "success", Message: message})
}

// WriteJSON writes any payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
