package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/cerberus"
)

const unknownSource = "unknown"

type EventsHandler struct {
	engine *cerberus.Cerberus
}

func NewEventsHandler(engine *cerberus.Cerberus) *EventsHandler {
	return &EventsHandler{engine: engine}
}

type EventRequest struct {
	IP      string `json:"ip"`
	Payload string `json:"payload"`
}

// Submit classifies one event and returns the engine's outcome.
func (h *EventsHandler) Submit(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.IP == "" {
		req.IP = unknownSource
	}

	c.JSON(http.StatusOK, h.engine.Process(c.Request.Context(), req.IP, req.Payload))
}

// Status returns the telemetry snapshot.
func (h *EventsHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}
