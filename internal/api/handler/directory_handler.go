package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// DirectoryHandler serves users and roles reference data.
type DirectoryHandler struct {
	directory ports.DirectoryService
}

func NewDirectoryHandler(directory ports.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListUsers
//
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  domain.User
// @Router       /users [get]
func (h *DirectoryHandler) ListUsers(c echo.Context) error {
	users, err := h.directory.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(http.StatusOK, users)
}

// UserOptions returns active users as {id, name} pairs for selection inputs.
//
// @Summary      User options
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  domain.UserOption
// @Router       /users/options [get]
func (h *DirectoryHandler) UserOptions(c echo.Context) error {
	opts, err := h.directory.UserOptions(c.Request().Context())
	if err != nil {
		return err
	}
	if opts == nil {
		opts = []domain.UserOption{}
	}
	return c.JSON(http.StatusOK, opts)
}

// ListRoles
//
// @Summary      List roles
// @Tags         cargos
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  domain.Role
// @Router       /cargos [get]
func (h *DirectoryHandler) ListRoles(c echo.Context) error {
	roles, err := h.directory.ListRoles(c.Request().Context())
	if err != nil {
		return err
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return c.JSON(http.StatusOK, roles)
}
