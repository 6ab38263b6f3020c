package delivery

import (
	"io"
	"net/http"

	"arbitrage-gateway/pkg/events"

	"github.com/gin-gonic/gin"
)

// Browser-side event names accepted on the publish endpoint, mapped to the
// relay's typed kinds.
var clientEventKinds = map[string]events.Kind{
	"token_expired":             events.KindTokenExpired,
	"token_refreshed":           events.KindTokenRefreshed,
	"refresh_failed":            events.KindRefreshFailed,
	"notifications_auth_failed": events.KindNotificationsAuthFailed,
}

type publishEventRequest struct {
	Event string `json:"event" binding:"required"`
}

// PublishAuthEvent lets the browser report an auth transition (its token
// refresh happens client-side); the relay re-broadcasts it as a typed event.
func PublishAuthEvent(bus *events.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req publishEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event is required", "details": err.Error()})
			return
		}

		kind, ok := clientEventKinds[req.Event]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event kind"})
			return
		}

		event := events.NewEvent(kind)
		bus.Publish(event)
		c.JSON(http.StatusOK, gin.H{"published": event})
	}
}

// StreamEvents streams relay events to the browser over SSE so components
// can react (reconnect prompts) without polling.
func StreamEvents(bus *events.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel := bus.Subscribe()
		defer cancel()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		c.Stream(func(w io.Writer) bool {
			select {
			case event, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent(string(event.Kind), event)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
