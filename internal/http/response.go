// Package http wires the public REST surface: router, auth endpoints,
// building queries and the admin panel.
package http

import (
	"encoding/json"
	"net/http"
)

// SuccessEnvelope is the standard response wrapper.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope is the standard error wrapper.
type ErrorEnvelope struct {
	Data  any            `json:"data"`
	Error *ErrorResponse `json:"error"`
}

// ErrorResponse details an API error.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: payload, Error: nil})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Data: nil, Error: &ErrorResponse{Code: code, Message: message, Details: details}})
}
