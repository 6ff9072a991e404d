package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		code  int
		msg   string
		field string
	}{
		{"validation", domain.NewValidationError("description", "must have at least 5 characters"), http.StatusBadRequest, "description: must have at least 5 characters", "description"},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required", ""},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials", ""},
		{"forbidden", fmt.Errorf("submit objective: %w", domain.ErrForbidden), http.StatusForbidden, "access forbidden", ""},
		{"transition", domain.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid status transition", ""},
		{"stage not found", fmt.Errorf("load stage: %w", domain.ErrStageNotFound), http.StatusNotFound, "stage not found", ""},
		{"deliverable not found", domain.ErrDeliverableNotFound, http.StatusNotFound, "deliverable not found", ""},
		{"conflict", domain.ErrUserExists, http.StatusConflict, "user already exists", ""},
		{"echo", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload", ""},
		{"unexpected", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tc.msg || resp.Field != tc.field {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected committed 204 to stand, got %d", rec.Code)
	}
}
