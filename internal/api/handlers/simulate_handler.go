package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/simulator"
)

type SimulateHandler struct {
	sim *simulator.Simulator
}

func NewSimulateHandler(sim *simulator.Simulator) *SimulateHandler {
	return &SimulateHandler{sim: sim}
}

type SimulateRequest struct {
	Type string `json:"type"`
}

// Run plays a canned attack pattern through the engine. An empty body runs
// the SQL injection pattern.
func (h *SimulateHandler) Run(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.Type == "" {
		req.Type = string(simulator.KindSQLInjection)
	}

	results := h.sim.Run(c.Request.Context(), simulator.Kind(req.Type))
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
