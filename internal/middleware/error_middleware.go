package middleware

import (
	"net/http"

	"mazi-recorder/internal/transport/httpdto"
	"mazi-recorder/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns errors attached with c.Error into the standard error
// envelope. Handlers that already wrote a body are left alone.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		c.JSON(status, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}
