package handlers

import (
	"carelog/internal/dispatch"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DispatchHandler exposes the two dispatch passes to the external
// scheduler. Each request runs one stateless pass and returns the
// invocation summary; occurrence-level failures are reported inside the
// summary, never as an HTTP error.
type DispatchHandler struct {
	dispatcher *dispatch.Dispatcher
}

func NewDispatchHandler(dispatcher *dispatch.Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher}
}

// TriggerReminders runs one reminder evaluation pass
func (h *DispatchHandler) TriggerReminders(c *gin.Context) {
	summary := h.dispatcher.DispatchReminders(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}

// TriggerMissedActivity runs one inactivity detection pass
func (h *DispatchHandler) TriggerMissedActivity(c *gin.Context) {
	summary := h.dispatcher.DispatchMissedActivity(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}
