package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/api/middleware"
	"github.com/Wikid82/chimera/backend/internal/models"
	"github.com/Wikid82/chimera/backend/internal/services"
)

const defaultDecisionLimit = 50

type DecisionsHandler struct {
	service *services.AuditService
}

func NewDecisionsHandler(service *services.AuditService) *DecisionsHandler {
	return &DecisionsHandler{service: service}
}

// List returns audited decisions, newest first, optionally for one source.
func (h *DecisionsHandler) List(c *gin.Context) {
	limit := defaultDecisionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	var (
		decisions []models.SecurityDecision
		err       error
	)
	if source := c.Query("source"); source != "" {
		decisions, err = h.service.ListDecisionsForSource(source, limit)
	} else {
		decisions, err = h.service.ListDecisions(limit)
	}
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to list decisions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list decisions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions, "count": len(decisions)})
}
