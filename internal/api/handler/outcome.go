package handler

import (
	"errors"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// outcome is the "result" label value recorded for a submission attempt.
func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthenticated):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "conflict"
	default:
		return "error"
	}
}
