package main

import (
	"context"
	"log"
	"strings"
	"time"

	api "arbitrage-gateway/cmd/api"
	"arbitrage-gateway/internal/notification"
	pushdomain "arbitrage-gateway/internal/push/domain"
	pushRepo "arbitrage-gateway/internal/push/repository"
	pushUsecase "arbitrage-gateway/internal/push/usecase"
	"arbitrage-gateway/internal/sw"
	"arbitrage-gateway/pkg/backend"
	"arbitrage-gateway/pkg/config"
	"arbitrage-gateway/pkg/database"
	"arbitrage-gateway/pkg/device"
	"arbitrage-gateway/pkg/events"
	"arbitrage-gateway/pkg/fcm"
	"arbitrage-gateway/pkg/webpush"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&pushdomain.FCMToken{}, &pushdomain.WebPushSubscription{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	subscriptionRepo := pushRepo.NewSubscriptionRepository(db)

	// Initialize event bus for auth and notification events
	bus := events.NewBus()
	defer bus.Close()

	// Initialize backend client
	backendClient := backend.New(cfg.ResolveBackendURL(), cfg.BackendTimeout)
	log.Printf("[DEBUG] Relaying to backend at %s", cfg.ResolveBackendURL())

	// Initialize device capability detector
	detector := device.NewDetector()

	// Initialize FCM client (optional, gateway runs without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			log.Printf("[DEBUG] FCM client initialized successfully")
		}
	} else {
		log.Printf("[DEBUG] No Firebase credentials configured, FCM disabled")
	}

	// Initialize web push sender (optional, requires VAPID key pair)
	wpSender := webpush.NewSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber)
	if !wpSender.Configured() {
		log.Printf("[WARN] VAPID keys not configured, web push delivery disabled")
	}

	// Initialize match event fan-out (Pub/Sub)
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		log.Printf("[DEBUG] Initializing notification service with projectID: %s", cfg.GoogleProjectID)

		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "match-events"
		}
		log.Printf("[DEBUG] Using topic name: %s", topicName)

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, subscriptionRepo, fcmClient, wpSender, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			log.Printf("[DEBUG] Notification service initialized, starting...")
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, notification service disabled")
	}

	// Initialize use cases (dependency injection)
	pushUsecaseInstance := pushUsecase.NewPushUsecase(subscriptionRepo, backendClient, detector, bus)

	// Initialize cache-first asset layer and warm it in the background
	assetCache := sw.NewAssetCache(cfg.AssetOrigin, cfg.CacheVersion, cfg.BackendTimeout)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		assetCache.Prewarm(ctx)
	}()

	// Initialize HTTP handler
	handler := api.NewHandler(pushUsecaseInstance, backendClient, detector, wpSender, assetCache, bus, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
