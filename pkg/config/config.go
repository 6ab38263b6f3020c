package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Env             string // "production" or "development"
	BackendURL      string
	LocalBackendURL string
	BackendTimeout  time.Duration

	DatabaseURL string

	FirebaseCredentials string
	VAPIDPublicKey      string
	VAPIDPrivateKey     string
	VAPIDSubscriber     string

	GoogleProjectID   string
	GooglePubSubTopic string
	GoogleCredentials string

	AssetOrigin  string
	CacheVersion string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	backendTimeout := 15 * time.Second
	if t := os.Getenv("BACKEND_TIMEOUT"); t != "" {
		if parsed, err := time.ParseDuration(t); err == nil {
			backendTimeout = parsed
		}
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		BackendURL:      getEnv("BACKEND_URL", "https://api.federation-arbitrage.fr"),
		LocalBackendURL: getEnv("LOCAL_BACKEND_URL", "http://localhost:8000"),
		BackendTimeout:  backendTimeout,

		DatabaseURL: getEnv("DATABASE_URL", ""),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		VAPIDPublicKey:      getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:     getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber:     getEnv("VAPID_SUBSCRIBER", "contact@federation-arbitrage.fr"),

		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("PUBSUB_TOPIC", "match-updates"),
		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS", ""),

		AssetOrigin:  getEnv("ASSET_ORIGIN", "http://localhost:3000"),
		CacheVersion: getEnv("CACHE_VERSION", "arbitre-portal-v1"),
	}
}

// ResolveBackendURL picks the backend origin from the deployment environment,
// never from request data.
func (c *Config) ResolveBackendURL() string {
	if strings.EqualFold(c.Env, "production") {
		return c.BackendURL
	}
	return c.LocalBackendURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
