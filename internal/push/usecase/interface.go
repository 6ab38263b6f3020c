package usecase

import (
	"context"

	"arbitrage-gateway/pkg/backend"
	"arbitrage-gateway/pkg/webpush"
)

// EndpointResult is the outcome of one unsubscribe call in the
// unsubscribe-all flow.
type EndpointResult struct {
	Endpoint string `json:"endpoint"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// PushUsecase orchestrates the subscription lifecycle: registry writes,
// forwarding to the backend, and the sequential unsubscribe-all flow.
type PushUsecase interface {
	SubscribeFCM(ctx context.Context, bearer, fcmToken, userAgent string) (*backend.Response, error)
	UnsubscribeFCM(ctx context.Context, bearer, fcmToken string) (*backend.Response, error)
	FCMStatus(ctx context.Context, bearer string) (*backend.Response, error)
	FCMTest(ctx context.Context, bearer string) (*backend.Response, error)

	WebPushStatus(ctx context.Context, bearer string) (*backend.Response, error)
	UnsubscribeAll(ctx context.Context, bearer string) ([]EndpointResult, error)

	SubscribeWebPush(ctx context.Context, bearer string, sub webpush.Subscription, userAgent string) (*backend.Response, error)
	UnsubscribeWebPush(ctx context.Context, bearer, endpoint string) (*backend.Response, error)
}
