package delivery

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	authdelivery "arbitrage-gateway/internal/auth/delivery"
	pushdomain "arbitrage-gateway/internal/push/domain"
	"arbitrage-gateway/internal/push/usecase"
	"arbitrage-gateway/pkg/backend"
	"arbitrage-gateway/pkg/device"
	"arbitrage-gateway/pkg/events"
	"arbitrage-gateway/pkg/webpush"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// noopRepo satisfies the registry without storage.
type noopRepo struct{}

func (noopRepo) SaveFCMToken(userID, token, deviceType, userAgent string) error { return nil }
func (noopRepo) GetFCMTokensByUserID(userID string) ([]pushdomain.FCMToken, error) {
	return nil, nil
}
func (noopRepo) DeleteFCMToken(token string) error { return nil }
func (noopRepo) DeleteFCMTokens(tokens []string) error { return nil }
func (noopRepo) SaveWebPushSubscription(sub *pushdomain.WebPushSubscription) error { return nil }
func (noopRepo) GetWebPushSubscriptionsByUserID(userID string) ([]pushdomain.WebPushSubscription, error) {
	return nil, nil
}
func (noopRepo) DeleteWebPushSubscription(endpoint string) error { return nil }

// setup wires the push routes the way cmd/api does, against backendURL.
func setup(t *testing.T, backendURL string) (*gin.Engine, *events.Bus) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	uc := usecase.NewPushUsecase(noopRepo{}, backend.New(backendURL, 2*time.Second), device.NewDetector(), bus)
	h := NewPushHandler(uc, device.NewDetector(), webpush.NewSender("pub", "priv", "test@test"))

	r := gin.New()
	api := r.Group("/api")
	accounts := api.Group("/accounts")
	accounts.Use(authdelivery.AuthMiddleware(bus))
	{
		accounts.POST("/fcm/subscribe", h.SubscribeFCM)
		accounts.POST("/fcm/unsubscribe", h.UnsubscribeFCM)
		accounts.GET("/fcm/status", h.FCMStatus)
		accounts.POST("/fcm/test", h.FCMTest)
		accounts.GET("/push/status", h.WebPushStatus)
		accounts.POST("/push/unsubscribe", h.UnsubscribeAll)
	}
	api.POST("/notifications/push/subscribe", h.SubscribeWebPush)
	api.GET("/notifications/push/vapid-key", h.VAPIDKey)
	api.GET("/notifications/capabilities", h.Capabilities)
	return r, bus
}

func TestAuthRequiredRoutesRejectWithoutOutboundCall(t *testing.T) {
	var backendCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&backendCalls, 1)
	}))
	defer srv.Close()

	r, _ := setup(t, srv.URL)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/accounts/fcm/subscribe"},
		{http.MethodPost, "/api/accounts/fcm/unsubscribe"},
		{http.MethodGet, "/api/accounts/fcm/status"},
		{http.MethodPost, "/api/accounts/fcm/test"},
		{http.MethodGet, "/api/accounts/push/status"},
		{http.MethodPost, "/api/accounts/push/unsubscribe"},
	}
	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
	assert.Zero(t, atomic.LoadInt64(&backendCalls), "no outbound call without auth")
}

func TestSubscribeRequiresToken(t *testing.T) {
	var backendCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&backendCalls, 1)
	}))
	defer srv.Close()

	r, _ := setup(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts/fcm/subscribe", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, atomic.LoadInt64(&backendCalls))
}

func TestFCMStatusDegradedModeWhenBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, _ := setup(t, url)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/fcm/status", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "diagnostic route masks the outage")
	assert.Contains(t, w.Body.String(), `"is_subscribed":false`)
	assert.Contains(t, w.Body.String(), "test mode")
}

func TestWebPushStatusHard503WhenBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r, _ := setup(t, url)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/push/status", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "production route does not mask")
	assert.Contains(t, w.Body.String(), "backend unavailable")
}

func TestBackendErrorRelayedInEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"déjà abonné"}`))
	}))
	defer srv.Close()

	r, _ := setup(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts/fcm/subscribe", strings.NewReader(`{"fcm_token":"tok"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "backend error")
	assert.Contains(t, w.Body.String(), "déjà abonné")
}

func TestCapabilitiesIOSFallback(t *testing.T) {
	r, _ := setup(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/capabilities", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 Safari/604.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"push_supported":false`)
	assert.Contains(t, w.Body.String(), `"requires_install":true`)
	assert.Contains(t, w.Body.String(), "écran d'accueil")
}

func TestVAPIDKeyExposesPublicKeyOnly(t *testing.T) {
	r, _ := setup(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/push/vapid-key", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"public_key":"pub"`)
	assert.NotContains(t, w.Body.String(), "priv")
}
