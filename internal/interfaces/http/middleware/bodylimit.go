package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backoffice/internal/interfaces/http/dto"
)

// BodyLimit caps the request body size. Receipt batches are already bounded
// by the per-batch line limit, so anything over the cap is a misbehaving
// client, not a big but legitimate submission. Declared lengths are rejected
// up front; chunked bodies are cut off by a MaxBytesReader while streaming.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
