package delivery

import (
	"net/http"

	"arbitrage-gateway/internal/auth"
	"arbitrage-gateway/pkg/events"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware checks that a bearer token is present and well-formed.
// Signature verification stays with the backend when the token is forwarded.
// An already-expired token is rejected here and announced on the relay so
// clients can show a reconnect prompt.
func AuthMiddleware(bus *events.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		if _, ok := auth.StripBearer(authHeader); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		if auth.Expired(authHeader) {
			bus.Publish(events.NewEvent(events.KindTokenExpired))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			c.Abort()
			return
		}

		c.Set("bearer", authHeader)
		c.Set("userID", auth.Subject(authHeader))
		c.Next()
	}
}
