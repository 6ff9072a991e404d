package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/api/metrics"
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	RoleID     string `json:"cargo_id"`
	LegacyRole string `json:"cargo"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token        string      `json:"token,omitempty"`
	User         domain.User `json:"user"`
	Capabilities []string    `json:"capabilities"`
	Landing      string      `json:"landing"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

func toSessionResponse(s *domain.Session, withToken bool) sessionResponse {
	resp := sessionResponse{
		User:         s.User,
		Capabilities: s.Capabilities,
		Landing:      s.Landing(),
		ExpiresAt:    s.ExpiresAt.UTC(),
	}
	if withToken {
		resp.Token = s.Token
	}
	return resp
}

// Login authenticates a user and returns the session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, toSessionResponse(session, true))
}

// Logout revokes the current token.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), session); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the current session without its token.
//
// @Summary      Current session
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session, false))
}

// Register creates a user account. Mounted under the users capability.
//
// @Summary      Create user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		RoleID:     req.RoleID,
		LegacyRole: req.LegacyRole,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}
