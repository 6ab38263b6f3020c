// Package webpush sends native Web Push notifications using VAPID keys. The
// private key stays server-side; clients only ever see the public key.
package webpush

import (
	"encoding/json"
	"fmt"
	"log"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Subscription mirrors the browser PushSubscription shape.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Payload is the JSON document the service worker receives in a push event.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Tag   string            `json:"tag,omitempty"`
	URL   string            `json:"url,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type Sender struct {
	publicKey  string
	privateKey string
	subscriber string
}

func NewSender(publicKey, privateKey, subscriber string) *Sender {
	return &Sender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

// Configured reports whether a VAPID key pair was provided.
func (s *Sender) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// PublicKey returns the VAPID public key for client-side subscription.
func (s *Sender) PublicKey() string {
	return s.publicKey
}

// Send delivers the payload to one subscription. The second return value is
// true when the push service reported the subscription gone (404/410) and it
// should be removed from the registry.
func (s *Sender) Send(sub Subscription, payload Payload) (gone bool, err error) {
	if !s.Configured() {
		log.Println("[WebPush] VAPID keys not configured, skipping push")
		return false, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to encode push payload: %w", err)
	}

	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber, // webpush-go adds mailto: automatically
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60 * 60 * 24,
	})
	if err != nil {
		return false, fmt.Errorf("failed to send web push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == 404 || resp.StatusCode == 410:
		log.Printf("[WebPush] Subscription gone (%d): %s", resp.StatusCode, truncateEndpoint(sub.Endpoint))
		return true, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	default:
		return false, fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
}

func truncateEndpoint(endpoint string) string {
	if len(endpoint) > 50 {
		return endpoint[:50] + "..."
	}
	return endpoint
}
