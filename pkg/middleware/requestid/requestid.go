package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation id in and out of the service.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware propagates the caller's request id or assigns a new one.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request id stored on the context, if any.
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}
