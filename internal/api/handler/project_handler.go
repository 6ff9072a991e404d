package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/api/metrics"
	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type ProjectHandler struct {
	involvement ports.InvolvementService
}

func NewProjectHandler(involvement ports.InvolvementService) *ProjectHandler {
	return &ProjectHandler{involvement: involvement}
}

type dashboardResponse struct {
	Projects []*domain.Project       `json:"projects"`
	Summary  domain.PortfolioSummary `json:"summary"`
	Skipped  int                     `json:"skipped"`
}

// List returns projects. With ?mine=true only the caller's involved projects
// are returned.
//
// @Summary      List projects
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        mine  query     bool  false  "Only projects involving the caller"
// @Success      200   {array}   domain.Project
// @Router       /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	var (
		projects []*domain.Project
		err      error
	)
	if c.QueryParam("mine") == "true" {
		session, serr := ctxSession(c)
		if serr != nil {
			return serr
		}
		projects, err = h.involvement.InvolvedProjects(c.Request().Context(), session.UserID())
	} else {
		projects, err = h.involvement.ListProjects(c.Request().Context())
	}
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []*domain.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// Get returns one project with its stages.
//
// @Summary      Get project
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  domain.Project
// @Failure      404  {object}  map[string]string
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	p, err := h.involvement.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Dashboard returns the caller's project roll-up.
//
// @Summary      Dashboard
// @Tags         projects
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Router       /dashboard [get]
func (h *ProjectHandler) Dashboard(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	res, err := h.involvement.Dashboard(c.Request().Context(), session.UserID())
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		metrics.HydrationSkippedTotal.Add(float64(res.Skipped))
	}
	projects := res.Projects
	if projects == nil {
		projects = []*domain.Project{}
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		Projects: projects,
		Summary:  res.Summary,
		Skipped:  res.Skipped,
	})
}
