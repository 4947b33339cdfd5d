package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/chimera/backend/internal/ledger"
)

type LogsHandler struct {
	ledger *ledger.Ledger
}

func NewLogsHandler(l *ledger.Ledger) *LogsHandler {
	return &LogsHandler{ledger: l}
}

// List returns the whole ledger in insertion order.
func (h *LogsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.All())
}

// Recent returns the newest entries. count defaults to ledger.DefaultRecent.
func (h *LogsHandler) Recent(c *gin.Context) {
	count := ledger.DefaultRecent
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
			return
		}
		count = n
	}
	c.JSON(http.StatusOK, h.ledger.Recent(count))
}
