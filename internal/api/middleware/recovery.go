package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery turns handler panics into a JSON 500. When verbose is true the log
// line carries the stack trace and sanitized request metadata.
func Recovery(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			entry := GetRequestLogger(c).WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   SanitizePath(c.Request.URL.Path),
			})
			if verbose {
				entry.WithField("headers", SanitizeHeaders(c.Request.Header)).
					Errorf("PANIC: %v\nStacktrace:\n%s", r, debug.Stack())
			} else {
				entry.Errorf("PANIC: %v", r)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}()
		c.Next()
	}
}
