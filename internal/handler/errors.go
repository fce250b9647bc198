package handler

import (
	"errors"
	"net/http"

	"github.com/taskalign/scheduler-core/internal/domain"
)

// scheduleErrorStatus maps the core scheduler's sentinel error kinds
// onto HTTP status codes.
func scheduleErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInfeasible):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInternal):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
