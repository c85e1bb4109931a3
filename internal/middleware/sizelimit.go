package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/aleisley/ta-backend/pkg/errors"
	"github.com/aleisley/ta-backend/pkg/httputil"
)

// SizeLimit rejects bodies that declare more than maxBytes up front and caps
// the rest while they are read.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.RespondWithError(c, apperrors.PayloadTooLarge(maxBytes))
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
