package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avollmer/agentcore-showcase/pkg/api"
	"github.com/avollmer/agentcore-showcase/pkg/storage"
)

// HTTPStatusFromError maps an error to the HTTP status code a
// transport-level failure should carry.
func HTTPStatusFromError(err error) int {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Type {
		case api.ErrorTypeInvalidRequest:
			return http.StatusBadRequest
		case api.ErrorTypeNotFound:
			return http.StatusNotFound
		case api.ErrorTypeTooManyRequests:
			return http.StatusTooManyRequests
		case api.ErrorTypeModelError:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}

	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

// WriteJSON writes an arbitrary payload with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors at this point mean the connection is gone; there is
	// nothing useful left to send.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with HTTP 200.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, api.OK(data))
}

// WriteFailure writes a failure envelope with HTTP 200. Domain-level
// failures (an AWS call rejected, a demo precondition unmet) are part of
// the normal response surface, not transport errors.
func WriteFailure(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, api.Fail(message))
}

// WriteFailureStatus writes a failure envelope with an explicit HTTP
// status, for transport-level failures like bad JSON or missing auth.
func WriteFailureStatus(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, api.Fail(message))
}

// WriteError writes a failure envelope using the status derived from the
// error. Validation errors surface their structured message.
func WriteError(w http.ResponseWriter, err error) {
	WriteFailureStatus(w, HTTPStatusFromError(err), err.Error())
}
