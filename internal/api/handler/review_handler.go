package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/api/metrics"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// ReviewHandler serves reviewer decisions. Routes are mounted behind the
// /reviews capability.
type ReviewHandler struct {
	checklist    ports.ChecklistService
	deliverables ports.DeliverableService
}

func NewReviewHandler(checklist ports.ChecklistService, deliverables ports.DeliverableService) *ReviewHandler {
	return &ReviewHandler{checklist: checklist, deliverables: deliverables}
}

// GetSubmission returns one checklist submission with its evidence.
//
// @Summary      Get checklist submission
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        submissionId  path      string  true  "Submission ID"
// @Success      200           {object}  domain.ChecklistSubmission
// @Failure      404           {object}  map[string]string
// @Router       /reviews/checklist/{submissionId} [get]
func (h *ReviewHandler) GetSubmission(c echo.Context) error {
	sub, err := h.checklist.GetSubmission(c.Request().Context(), c.Param("submissionId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// ReviewObjective approves or rejects a checklist submission.
//
// @Summary      Review checklist objective
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        submissionId  path      string         true  "Submission ID"
// @Param        body          body      reviewRequest  true  "Decision"
// @Success      200           {object}  domain.ChecklistSubmission
// @Failure      422           {object}  map[string]string
// @Router       /reviews/checklist/{submissionId} [post]
func (h *ReviewHandler) ReviewObjective(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sub, err := h.checklist.ReviewObjective(c.Request().Context(), session, ports.ReviewInput{
		SubjectID: c.Param("submissionId"),
		Decision:  req.Decision,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}
	metrics.ReviewsTotal.WithLabelValues("objective", string(sub.Status)).Inc()
	return c.JSON(http.StatusOK, sub)
}

// ReviewDeliverable approves or rejects a deliverable, moving its stage.
//
// @Summary      Review deliverable
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        deliverableId  path      string         true  "Deliverable ID"
// @Param        body           body      reviewRequest  true  "Decision"
// @Success      200            {object}  domain.Deliverable
// @Failure      422            {object}  map[string]string
// @Router       /reviews/deliverables/{deliverableId} [post]
func (h *ReviewHandler) ReviewDeliverable(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.deliverables.Review(c.Request().Context(), session, ports.ReviewInput{
		SubjectID: c.Param("deliverableId"),
		Decision:  req.Decision,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}
	metrics.ReviewsTotal.WithLabelValues("deliverable", string(d.Status)).Inc()
	return c.JSON(http.StatusOK, d)
}
