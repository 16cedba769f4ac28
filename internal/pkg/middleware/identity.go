package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const callerIDKey = "caller_id"

// RequireIdentity rejects requests that do not carry a valid X-User-ID
// header. The API gateway authenticates callers upstream and forwards the
// resolved user ID in this header.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		callerID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing or invalid X-User-ID header",
			})
			return
		}
		c.Set(callerIDKey, callerID)
		c.Next()
	}
}

// CallerID returns the authenticated caller set by RequireIdentity.
func CallerID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(callerIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
