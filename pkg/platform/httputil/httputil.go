// Package httputil writes the JSON envelopes shared by every endpoint.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "grantapp/pkg/domain-errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error to its status and writes the error envelope.
// Uncoded errors never leak their text; they become a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.From(err)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Status:  StatusError,
			Message: "internal server error",
		})
		return
	}
	WriteJSON(w, StatusFor(de.Code), ErrorResponse{Status: StatusError, Message: de.Message})
}

// WriteFieldErrors writes a 422 carrying per-field messages.
func WriteFieldErrors(w http.ResponseWriter, message string, fields map[string][]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Status:  StatusError,
		Message: message,
		Errors:  fields,
	})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
