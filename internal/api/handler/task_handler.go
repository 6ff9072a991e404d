package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/api/metrics"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// TaskHandler serves the executor side of the stage workflow: the task
// list, stage detail, checklist marking and submissions.
type TaskHandler struct {
	involvement  ports.InvolvementService
	stages       ports.StageService
	checklist    ports.ChecklistService
	deliverables ports.DeliverableService
}

func NewTaskHandler(
	involvement ports.InvolvementService,
	stages ports.StageService,
	checklist ports.ChecklistService,
	deliverables ports.DeliverableService,
) *TaskHandler {
	return &TaskHandler{
		involvement:  involvement,
		stages:       stages,
		checklist:    checklist,
		deliverables: deliverables,
	}
}

// MyTasks lists the stages the caller may act on.
//
// @Summary      My tasks
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  myTasksResponse
// @Router       /tasks/my [get]
func (h *TaskHandler) MyTasks(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	res, err := h.involvement.MyTasks(c.Request().Context(), session.UserID())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMyTasksResponse(res))
}

// Detail returns a stage with checklist, progress and deliverable history.
//
// @Summary      Stage detail
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        stageId  path      string  true  "Stage ID"
// @Success      200      {object}  stageDetailResponse
// @Failure      403      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Router       /tasks/{stageId} [get]
func (h *TaskHandler) Detail(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	detail, err := h.stages.GetDetail(c.Request().Context(), session, c.Param("stageId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStageDetailResponse(detail))
}

// MarkItem flags or unflags one checklist item.
//
// @Summary      Mark checklist item
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        stageId  path      string           true  "Stage ID"
// @Param        index    path      int              true  "Checklist index"
// @Param        body     body      markItemRequest  true  "Marked flag"
// @Success      200      {object}  domain.Stage
// @Failure      422      {object}  map[string]string
// @Router       /tasks/{stageId}/checklist/{index}/mark [put]
func (h *TaskHandler) MarkItem(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	var req markItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	stage, err := h.checklist.MarkItem(c.Request().Context(), session, ports.MarkItemInput{
		StageID: c.Param("stageId"),
		Index:   index,
		Marked:  *req.Marked,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stage)
}

// SubmitObjective submits evidence for one checklist objective.
//
// @Summary      Submit checklist objective
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        stageId  path      string                  true  "Stage ID"
// @Param        index    path      int                     true  "Checklist index"
// @Param        body     body      submitObjectiveRequest  true  "Objective evidence"
// @Success      201      {object}  domain.ChecklistSubmission
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /tasks/{stageId}/checklist/{index}/submit [post]
func (h *TaskHandler) SubmitObjective(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	index, err := indexParam(c, "index")
	if err != nil {
		return err
	}
	var req submitObjectiveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sub, err := h.checklist.SubmitObjective(c.Request().Context(), session, ports.SubmitObjectiveInput{
		StageID:        c.Param("stageId"),
		ChecklistIndex: index,
		Description:    req.Description,
		Images:         toAttachmentInputs(req.Images),
		Documents:      toAttachmentInputs(req.Documents),
	})
	metrics.SubmissionsTotal.WithLabelValues("objective", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

// SubmitDeliverable submits the stage deliverable and sends the stage to review.
//
// @Summary      Submit deliverable
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        stageId  path      string                    true  "Stage ID"
// @Param        body     body      submitDeliverableRequest  true  "Deliverable"
// @Success      201      {object}  domain.Deliverable
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      422      {object}  map[string]string
// @Router       /tasks/{stageId}/deliver [post]
func (h *TaskHandler) SubmitDeliverable(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req submitDeliverableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.deliverables.Submit(c.Request().Context(), session, ports.SubmitDeliverableInput{
		StageID:     c.Param("stageId"),
		Description: req.Description,
		Image:       toAttachmentInput(req.Image),
	})
	metrics.SubmissionsTotal.WithLabelValues("deliverable", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

// EditDeliverable replaces the content of the deliverable under review.
//
// @Summary      Edit deliverable
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        stageId        path      string                  true  "Stage ID"
// @Param        deliverableId  path      string                  true  "Deliverable ID"
// @Param        body           body      editDeliverableRequest  true  "New content"
// @Success      200            {object}  domain.Deliverable
// @Failure      422            {object}  map[string]string
// @Router       /tasks/{stageId}/deliver/{deliverableId} [patch]
func (h *TaskHandler) EditDeliverable(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req editDeliverableRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	d, err := h.deliverables.Edit(c.Request().Context(), session, ports.EditDeliverableInput{
		StageID:       c.Param("stageId"),
		DeliverableID: c.Param("deliverableId"),
		Description:   req.Description,
		Image:         toAttachmentInput(req.Image),
		RemoveImage:   req.RemoveImage,
	})
	metrics.SubmissionsTotal.WithLabelValues("deliverable_edit", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
