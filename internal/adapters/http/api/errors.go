package api

import (
	"errors"
	"net/http"

	"github.com/okian/perfil/internal/adapters/ai"
	"github.com/okian/perfil/internal/adapters/repository"
	service "github.com/okian/perfil/internal/app"
	"github.com/okian/perfil/internal/domain/export"
	"github.com/okian/perfil/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("swagger serve failed")
	ErrBadRequest = errors.New("bad request")
)

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, scoring.ErrUnknownCategory),
		errors.Is(err, scoring.ErrInstrumentMismatch),
		errors.Is(err, export.ErrUnknownColumn),
		errors.Is(err, ai.ErrEmptyPlan):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrAlreadySubmitted):
		return http.StatusConflict, "already_submitted"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
