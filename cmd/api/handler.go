package api

import (
	excusesDelivery "arbitrage-gateway/internal/excuses/delivery"
	healthDelivery "arbitrage-gateway/internal/health/delivery"
	profileDelivery "arbitrage-gateway/internal/profile/delivery"
	pushDelivery "arbitrage-gateway/internal/push/delivery"
	pushUsecasePkg "arbitrage-gateway/internal/push/usecase"
	"arbitrage-gateway/internal/sw"
	"arbitrage-gateway/pkg/backend"
	"arbitrage-gateway/pkg/config"
	"arbitrage-gateway/pkg/device"
	"arbitrage-gateway/pkg/events"
	"arbitrage-gateway/pkg/webpush"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	pushHandler    *pushDelivery.PushHandler
	profileHandler *profileDelivery.ProfileHandler
	excuseHandler  *excusesDelivery.ExcuseHandler
	healthHandler  *healthDelivery.HealthHandler
	assetCache     *sw.AssetCache
	bus            *events.Bus
	config         *config.Config
}

func NewHandler(pushUc pushUsecasePkg.PushUsecase, backendClient *backend.Client, detector device.Detector, wpSender *webpush.Sender, assetCache *sw.AssetCache, bus *events.Bus, cfg *config.Config) *Handler {
	return &Handler{
		pushHandler:    pushDelivery.NewPushHandler(pushUc, detector, wpSender),
		profileHandler: profileDelivery.NewProfileHandler(backendClient),
		excuseHandler:  excusesDelivery.NewExcuseHandler(backendClient),
		healthHandler:  healthDelivery.NewHealthHandler(backendClient, nil),
		assetCache:     assetCache,
		bus:            bus,
		config:         cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h)

	return r.Run(addr)
}
