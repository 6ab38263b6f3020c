package usecase

import (
	"context"
	"log"
	"net/http"

	"arbitrage-gateway/internal/auth"
	pushdomain "arbitrage-gateway/internal/push/domain"
	"arbitrage-gateway/internal/push/repository"
	"arbitrage-gateway/pkg/backend"
	"arbitrage-gateway/pkg/device"
	"arbitrage-gateway/pkg/events"
	"arbitrage-gateway/pkg/webpush"
)

// pushUsecase implements PushUsecase interface
type pushUsecase struct {
	repo     repository.SubscriptionRepository
	backend  *backend.Client
	detector device.Detector
	bus      *events.Bus
}

// NewPushUsecase creates a new instance of pushUsecase
func NewPushUsecase(repo repository.SubscriptionRepository, backendClient *backend.Client, detector device.Detector, bus *events.Bus) PushUsecase {
	return &pushUsecase{
		repo:     repo,
		backend:  backendClient,
		detector: detector,
		bus:      bus,
	}
}

func (u *pushUsecase) SubscribeFCM(ctx context.Context, bearer, fcmToken, userAgent string) (*backend.Response, error) {
	userAgent = device.TruncateUserAgent(userAgent)
	caps := u.detector.Detect(userAgent)

	// Mirror first: a rotated token must land in the registry even if the
	// backend call fails afterwards.
	if err := u.repo.SaveFCMToken(auth.Subject(bearer), fcmToken, string(caps.Platform), userAgent); err != nil {
		log.Printf("[Push] Failed to mirror FCM token: %v", err)
	}

	resp, err := u.backend.PostJSON(ctx, "/api/accounts/fcm/subscribe", bearer, map[string]string{
		"fcm_token":  fcmToken,
		"user_agent": userAgent,
	})
	u.relayAuthFailure(resp, err)
	return resp, err
}

func (u *pushUsecase) UnsubscribeFCM(ctx context.Context, bearer, fcmToken string) (*backend.Response, error) {
	if err := u.repo.DeleteFCMToken(fcmToken); err != nil {
		log.Printf("[Push] Failed to remove FCM token from registry: %v", err)
	}

	resp, err := u.backend.PostJSON(ctx, "/api/accounts/fcm/unsubscribe", bearer, map[string]string{
		"fcm_token": fcmToken,
	})
	u.relayAuthFailure(resp, err)
	return resp, err
}

func (u *pushUsecase) FCMStatus(ctx context.Context, bearer string) (*backend.Response, error) {
	resp, err := u.backend.Get(ctx, "/api/accounts/fcm/status", bearer)
	u.relayAuthFailure(resp, err)
	return resp, err
}

func (u *pushUsecase) FCMTest(ctx context.Context, bearer string) (*backend.Response, error) {
	resp, err := u.backend.PostJSON(ctx, "/api/accounts/fcm/test", bearer, map[string]string{})
	u.relayAuthFailure(resp, err)
	return resp, err
}

func (u *pushUsecase) WebPushStatus(ctx context.Context, bearer string) (*backend.Response, error) {
	resp, err := u.backend.Get(ctx, "/api/accounts/push/status", bearer)
	u.relayAuthFailure(resp, err)
	return resp, err
}

// statusPayload is the backend's push status response shape.
type statusPayload struct {
	Subscriptions []struct {
		Endpoint string `json:"endpoint"`
	} `json:"subscriptions"`
}

// UnsubscribeAll discovers every active subscription for the caller, then
// unsubscribes them one by one. Best-effort: a failing endpoint does not
// abort the rest, and zero subscriptions is a successful no-op.
func (u *pushUsecase) UnsubscribeAll(ctx context.Context, bearer string) ([]EndpointResult, error) {
	statusResp, err := u.backend.Get(ctx, "/api/accounts/push/status", bearer)
	if err != nil {
		return nil, err
	}
	u.relayAuthFailure(statusResp, nil)
	if !statusResp.IsSuccess() {
		return nil, &backend.RelayedError{Response: statusResp}
	}

	var status statusPayload
	if err := statusResp.JSON(&status); err != nil {
		return nil, err
	}

	results := make([]EndpointResult, 0, len(status.Subscriptions))
	for _, sub := range status.Subscriptions {
		result := EndpointResult{Endpoint: sub.Endpoint}

		resp, err := u.backend.PostJSON(ctx, "/api/notifications/push/unsubscribe", bearer, map[string]string{
			"endpoint": sub.Endpoint,
		})
		switch {
		case err != nil:
			result.Error = err.Error()
		case !resp.IsSuccess():
			result.Error = http.StatusText(resp.Status)
		default:
			result.Success = true
		}

		// The mirror only forgets what the backend confirmed forgotten; a
		// failed endpoint stays registered so fan-out still reaches it.
		if result.Success {
			if err := u.repo.DeleteWebPushSubscription(sub.Endpoint); err != nil {
				log.Printf("[Push] Failed to remove subscription from registry: %v", err)
			}
		}

		results = append(results, result)
	}

	log.Printf("[Push] Unsubscribe-all processed %d endpoint(s)", len(results))
	return results, nil
}

func (u *pushUsecase) SubscribeWebPush(ctx context.Context, bearer string, sub webpush.Subscription, userAgent string) (*backend.Response, error) {
	userAgent = device.TruncateUserAgent(userAgent)
	caps := u.detector.Detect(userAgent)

	record := &pushdomain.WebPushSubscription{
		UserID:     auth.Subject(bearer),
		Endpoint:   sub.Endpoint,
		P256dh:     sub.Keys.P256dh,
		Auth:       sub.Keys.Auth,
		DeviceType: string(caps.Platform),
		UserAgent:  userAgent,
	}
	if err := u.repo.SaveWebPushSubscription(record); err != nil {
		log.Printf("[Push] Failed to mirror web push subscription: %v", err)
	}

	return u.backend.PostJSON(ctx, "/api/notifications/push/subscribe", bearer, map[string]any{
		"subscription": sub,
		"userAgent":    userAgent,
	})
}

func (u *pushUsecase) UnsubscribeWebPush(ctx context.Context, bearer, endpoint string) (*backend.Response, error) {
	if err := u.repo.DeleteWebPushSubscription(endpoint); err != nil {
		log.Printf("[Push] Failed to remove subscription from registry: %v", err)
	}

	resp, err := u.backend.PostJSON(ctx, "/api/notifications/push/unsubscribe", bearer, map[string]string{
		"endpoint": endpoint,
	})
	u.relayAuthFailure(resp, err)
	return resp, err
}

// relayAuthFailure announces backend 401s on the event bus so the UI can
// prompt for reconnection instead of failing silently.
func (u *pushUsecase) relayAuthFailure(resp *backend.Response, err error) {
	if err == nil && resp != nil && resp.Status == http.StatusUnauthorized {
		u.bus.Publish(events.NewEvent(events.KindNotificationsAuthFailed))
	}
}
