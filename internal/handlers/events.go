package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"sitevis/internal/events"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
)

// Subscriber streams status messages for one project.
type Subscriber interface {
	Subscribe(ctx context.Context, projectID uuid.UUID) (<-chan events.Message, error)
}

type EventsHandler struct {
	registry   *sessions.Registry
	subscriber Subscriber
}

// NewEventsHandler wires the status stream. subscriber may be nil, in which
// case streaming answers 503.
func NewEventsHandler(registry *sessions.Registry, subscriber Subscriber) *EventsHandler {
	return &EventsHandler{registry: registry, subscriber: subscriber}
}

// StreamEvents godoc
// @Summary     Stream project status
// @Description Server-sent events. The first event is a "status" snapshot; later events
// @Description are edit_started, edit_completed and edit_failed.
// @Tags        projects
// @Produce     text/event-stream
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} events.Message
// @Failure     404 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /projects/{project_id}/events [get]
func (h *EventsHandler) StreamEvents(c *gin.Context) {
	if h.subscriber == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "event stream not available"})
		return
	}
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	messages, err := h.subscriber.Subscribe(ctx, session.ID())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "event stream not available", Message: err.Error()})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("status", statusResponse(session.View().Status))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case m, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent(m.Event, m.Payload)
			return true
		}
	})
}
