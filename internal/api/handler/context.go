package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/api/middleware"
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// ctxSession extracts the session injected by the Auth middleware. A
// missing session means the route was mounted without Auth.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s, _ := c.Get(middleware.SessionKey).(*domain.Session)
	if s == nil || s.UserID() == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return s, nil
}

// indexParam parses a non-negative checklist index from the path.
func indexParam(c echo.Context, name string) (int, error) {
	i, err := strconv.Atoi(c.Param(name))
	if err != nil || i < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer")
	}
	return i, nil
}

// bind decodes the request body, reporting malformed JSON as a 400.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}
