package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"remittance-service/internal/application"
	"remittance-service/internal/infrastructure/auth"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

// statusFor maps an error kind to its HTTP status and public message.
// Errors raised below the application layer (token parsing, storage
// contention, upstream transport) answer with the kind's message only.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, auth.ErrMissingToken.Error()
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, auth.ErrInvalidToken.Error()
	case errors.Is(err, application.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, application.ErrQuoteExpired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, application.ErrLimitExceeded):
		return http.StatusBadRequest, application.ErrLimitExceeded.Error()
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, application.ErrAlreadySettled):
		return http.StatusConflict, application.ErrAlreadySettled.Error()
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict, application.ErrConflict.Error()
	case errors.Is(err, application.ErrUpstream):
		return http.StatusServiceUnavailable, application.ErrUpstream.Error()
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeError(w, status, msg)
}
