package api

import (
	"net/http"

	"arbitrage-gateway/internal/auth/delivery"
	"arbitrage-gateway/internal/sw"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	// Service worker script must be served from the root scope
	r.GET("/sw.js", sw.ServeServiceWorker)

	api := r.Group("/api")
	{
		// Liveness probe for the gateway itself (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Backend diagnostic fan-out
		api.GET("/health-check", h.healthHandler.Run)

		// Precache manifest consumed by the service worker install step
		api.GET("/sw/precache", sw.PrecacheManifest(h.config.CacheVersion))

		// SSE event stream + client-side auth event relay
		events := api.Group("/events")
		events.Use(delivery.AuthMiddleware(h.bus))
		{
			events.GET("", delivery.StreamEvents(h.bus))
			events.POST("/auth", delivery.PublishAuthEvent(h.bus))
		}

		// Account routes (protected)
		accounts := api.Group("/accounts")
		accounts.Use(delivery.AuthMiddleware(h.bus))
		{
			fcm := accounts.Group("/fcm")
			{
				fcm.POST("/subscribe", h.pushHandler.SubscribeFCM)
				fcm.POST("/unsubscribe", h.pushHandler.UnsubscribeFCM)
				fcm.GET("/status", h.pushHandler.FCMStatus)
				fcm.POST("/test", h.pushHandler.FCMTest)
			}

			push := accounts.Group("/push")
			{
				push.GET("/status", h.pushHandler.WebPushStatus)
				push.POST("/unsubscribe", h.pushHandler.UnsubscribeAll)
			}

			accounts.PATCH("/arbitres/profile/update", h.profileHandler.Update)
		}

		// Web push routes; subscribe stays open so a device can register
		// before the session is established
		notifications := api.Group("/notifications")
		{
			notifications.GET("/capabilities", h.pushHandler.Capabilities)

			push := notifications.Group("/push")
			{
				push.POST("/subscribe", h.pushHandler.SubscribeWebPush)
				push.POST("/unsubscribe", delivery.AuthMiddleware(h.bus), h.pushHandler.UnsubscribeWebPush)
				push.GET("/vapid-key", h.pushHandler.VAPIDKey)
			}
		}

		// Convocation excuse routes (protected)
		excuses := api.Group("/excuses")
		excuses.Use(delivery.AuthMiddleware(h.bus))
		{
			excuses.POST("/create", h.excuseHandler.Create)
			excuses.GET("/history", h.excuseHandler.History)
		}
	}

	// Everything else falls through to the cache-first asset layer
	if h.assetCache != nil {
		r.NoRoute(h.assetCache.Handler)
	}
}
