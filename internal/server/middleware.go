package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docintel/internal/common"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware tags every request with an ID, honoring one supplied by
// the caller, and threads it through the request context for downstream logs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
