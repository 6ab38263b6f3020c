package delivery

import (
	"errors"
	"net/http"

	"arbitrage-gateway/internal/push/usecase"
	"arbitrage-gateway/internal/relay"
	"arbitrage-gateway/pkg/backend"
	"arbitrage-gateway/pkg/device"
	"arbitrage-gateway/pkg/webpush"

	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	pushUsecase usecase.PushUsecase
	detector    device.Detector
	wpSender    *webpush.Sender
}

func NewPushHandler(pushUsecase usecase.PushUsecase, detector device.Detector, wpSender *webpush.Sender) *PushHandler {
	return &PushHandler{
		pushUsecase: pushUsecase,
		detector:    detector,
		wpSender:    wpSender,
	}
}

type subscribeFCMRequest struct {
	FCMToken  string `json:"fcm_token" binding:"required"`
	UserAgent string `json:"user_agent"`
}

func (h *PushHandler) SubscribeFCM(c *gin.Context) {
	var req subscribeFCMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fcm_token is required", "details": err.Error()})
		return
	}

	ua := req.UserAgent
	if ua == "" {
		ua = c.GetHeader("User-Agent")
	}

	resp, err := h.pushUsecase.SubscribeFCM(c.Request.Context(), c.GetString("bearer"), req.FCMToken, ua)
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

type unsubscribeFCMRequest struct {
	FCMToken string `json:"fcm_token" binding:"required"`
}

func (h *PushHandler) UnsubscribeFCM(c *gin.Context) {
	var req unsubscribeFCMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fcm_token is required", "details": err.Error()})
		return
	}

	resp, err := h.pushUsecase.UnsubscribeFCM(c.Request.Context(), c.GetString("bearer"), req.FCMToken)
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

// FCMStatus is a diagnostic surface: when the backend is unreachable it
// answers with a synthesized placeholder instead of an error, so the test
// page stays usable during an outage. This masks real failures from this
// caller, which is accepted for the two diagnostic routes only.
func (h *PushHandler) FCMStatus(c *gin.Context) {
	resp, err := h.pushUsecase.FCMStatus(c.Request.Context(), c.GetString("bearer"))
	if errors.Is(err, backend.ErrUnavailable) {
		c.JSON(http.StatusOK, gin.H{
			"is_subscribed": false,
			"message":       "Backend unavailable — test mode",
			"degraded":      true,
		})
		return
	}
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

// FCMTest applies the same degraded-mode policy as FCMStatus.
func (h *PushHandler) FCMTest(c *gin.Context) {
	resp, err := h.pushUsecase.FCMTest(c.Request.Context(), c.GetString("bearer"))
	if errors.Is(err, backend.ErrUnavailable) {
		c.JSON(http.StatusOK, gin.H{
			"sent":     false,
			"message":  "Backend unavailable — test mode",
			"degraded": true,
		})
		return
	}
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

// WebPushStatus does NOT mask outages: backend unreachable means 503 here.
func (h *PushHandler) WebPushStatus(c *gin.Context) {
	resp, err := h.pushUsecase.WebPushStatus(c.Request.Context(), c.GetString("bearer"))
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

func (h *PushHandler) UnsubscribeAll(c *gin.Context) {
	results, err := h.pushUsecase.UnsubscribeAll(c.Request.Context(), c.GetString("bearer"))
	if err != nil {
		var relayed *backend.RelayedError
		if errors.As(err, &relayed) {
			relay.Response(c, relayed.Response)
			return
		}
		relay.Failure(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": results,
	})
}

type subscribeWebPushRequest struct {
	Subscription webpush.Subscription `json:"subscription" binding:"required"`
	UserAgent    string               `json:"userAgent"`
}

func (h *PushHandler) SubscribeWebPush(c *gin.Context) {
	var req subscribeWebPushRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Subscription.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription with endpoint is required"})
		return
	}

	ua := req.UserAgent
	if ua == "" {
		ua = c.GetHeader("User-Agent")
	}

	resp, err := h.pushUsecase.SubscribeWebPush(c.Request.Context(), c.GetHeader("Authorization"), req.Subscription, ua)
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

type unsubscribeWebPushRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *PushHandler) UnsubscribeWebPush(c *gin.Context) {
	var req unsubscribeWebPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required", "details": err.Error()})
		return
	}

	resp, err := h.pushUsecase.UnsubscribeWebPush(c.Request.Context(), c.GetString("bearer"), req.Endpoint)
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

// VAPIDKey exposes the public half of the VAPID pair for client-side
// subscription. The private key never leaves the server.
func (h *PushHandler) VAPIDKey(c *gin.Context) {
	if !h.wpSender.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "web push is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.wpSender.PublicKey()})
}

// Capabilities reports the platform capability set derived from the caller's
// User-Agent, including the iOS Safari fallback guidance.
func (h *PushHandler) Capabilities(c *gin.Context) {
	caps := h.detector.Detect(c.GetHeader("User-Agent"))
	c.JSON(http.StatusOK, caps)
}
