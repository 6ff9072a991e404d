package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

type NotificationHandler struct {
	notifications ports.NotificationService
}

func NewNotificationHandler(notifications ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type unreadResponse struct {
	Count int64                 `json:"count"`
	Items []domain.Notification `json:"items"`
}

// Unread returns the caller's unread notifications and their count. Only
// unread listing is supported, so ?unread=false is rejected.
//
// @Summary      Unread notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        unread  query     bool  false  "Must be true when present"
// @Success      200     {object}  unreadResponse
// @Router       /notifications [get]
func (h *NotificationHandler) Unread(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	if q := c.QueryParam("unread"); q != "" && q != "true" {
		return domain.NewValidationError("unread", "only unread notifications can be listed")
	}
	res, err := h.notifications.Unread(c.Request().Context(), session.UserID())
	if err != nil {
		return err
	}
	items := res.Items
	if items == nil {
		items = []domain.Notification{}
	}
	return c.JSON(http.StatusOK, unreadResponse{Count: res.Count, Items: items})
}

// MarkRead
//
// @Summary      Mark notification read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), session.UserID(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream pushes the unread count as server-sent events until the client
// disconnects.
//
// @Summary      Unread count stream
// @Tags         notifications
// @Security     BearerAuth
// @Produce      text/event-stream
// @Success      200
// @Router       /notifications/stream [get]
func (h *NotificationHandler) Stream(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	counts, err := h.notifications.Subscribe(ctx, session.UserID())
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-counts:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: unread\ndata: {\"count\":%d}\n\n", n); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
