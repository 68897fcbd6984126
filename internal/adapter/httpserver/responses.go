// Package httpserver contains the HTTP handlers and middleware of the
// resume screener API. It keeps HTTP concerns out of the usecases: handlers
// translate requests into usecase calls and domain errors into the JSON
// error envelope.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
		codeStr = "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	case errors.Is(err, domain.ErrProviderUnavailable):
		code = http.StatusBadGateway
		codeStr = "PROVIDER_UNAVAILABLE"
	case errors.Is(err, domain.ErrExtractionFailed):
		code = http.StatusBadGateway
		codeStr = "EXTRACTION_FAILED"
	case errors.Is(err, domain.ErrPersistence):
		code = http.StatusInternalServerError
		codeStr = "PERSISTENCE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
