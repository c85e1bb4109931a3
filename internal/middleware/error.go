package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/aleisley/ta-backend/pkg/httputil"
	"github.com/aleisley/ta-backend/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Server errors are logged with their cause; client errors at debug.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	zl := log.Zerolog()

	return func(c *gin.Context) {
		c.Next()

		// Only handle errors if they exist
		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			appErr := httputil.ToAppError(e.Err)
			event := zl.Debug()
			if appErr.StatusCode() >= 500 {
				event = zl.Error()
			}
			event.
				Err(e.Err).
				Str("trace_id", traceID).
				Str("reason", appErr.Reason).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
