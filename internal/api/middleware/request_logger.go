package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request along with the request_id. Paths in
// skip are only logged when they fail.
func RequestLogger(skip ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		quiet[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if _, ok := quiet[c.Request.URL.Path]; ok && status < http.StatusBadRequest {
			return
		}
		entry := GetRequestLogger(c).WithFields(logrus.Fields{
			"status":  status,
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("handled request")
		case status >= http.StatusBadRequest:
			entry.Warn("handled request")
		default:
			entry.Info("handled request")
		}
	}
}
