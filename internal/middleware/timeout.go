package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"student-inout-api/internal/response"
)

// Timeout bounds the request context. Handlers that return after the
// deadline without writing get a 504 envelope.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			response.SendError(c, http.StatusGatewayTimeout, response.ErrCodeTimeout, "Request timed out")
			c.Abort()
		}
	}
}
