package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hims/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that rejects requests whose body
// exceeds maxBytes. The Content-Length header is checked first; the
// body reader is then wrapped so chunked uploads are capped too.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
