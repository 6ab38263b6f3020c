package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"arbitrage-gateway/internal/push/repository"
	"arbitrage-gateway/pkg/fcm"
	"arbitrage-gateway/pkg/webpush"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Defaults applied when a match event arrives with missing fields. The
// service worker applies the same title fallback for raw pushes.
const (
	DefaultTitle = "Nouvelle notification"
	DefaultBody  = "Consultez votre espace arbitre."
	DefaultTag   = "general"
	DefaultURL   = "/"
)

// MatchEvent is the message the federation backend publishes when a match
// assignment changes for a referee.
type MatchEvent struct {
	UserID  string `json:"user_id"`
	MatchID string `json:"match_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	URL     string `json:"url"`
}

type Service struct {
	pubsubClient *pubsub.Client
	repo         repository.SubscriptionRepository
	fcmClient    *fcm.Client
	wpSender     *webpush.Sender
	projectID    string
	topicName    string
	subName      string
}

func NewService(projectID, topicName string, repo repository.SubscriptionRepository, fcmClient *fcm.Client, wpSender *webpush.Sender, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient: client,
		repo:         repo,
		fcmClient:    fcmClient,
		wpSender:     wpSender,
		projectID:    projectID,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	// Ensure subscription exists
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var event MatchEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("[PubSub] Failed to unmarshal match event: %v", err)
		return
	}
	if event.UserID == "" {
		log.Printf("[PubSub] Match event without user_id, dropping")
		return
	}

	log.Printf("[PubSub] Match event for user %s (match: %s)", event.UserID, event.MatchID)
	s.Deliver(ctx, event)
}

// Deliver fans the event out to every registered device of the referee:
// FCM tokens first, then native Web Push endpoints. Dead registrations are
// pruned along the way.
func (s *Service) Deliver(ctx context.Context, event MatchEvent) {
	fcmPayload, wpPayload := Compose(event)

	if s.fcmClient != nil {
		tokens, err := s.repo.GetFCMTokensByUserID(event.UserID)
		if err != nil {
			log.Printf("[FCM] Error getting tokens for user %s: %v", event.UserID, err)
		} else if len(tokens) > 0 {
			tokenStrings := make([]string, 0, len(tokens))
			for _, t := range tokens {
				tokenStrings = append(tokenStrings, t.Token)
			}

			failedTokens, err := s.fcmClient.SendToDevices(ctx, tokenStrings, fcmPayload)
			if err != nil {
				log.Printf("[FCM] Error sending notifications: %v", err)
			} else {
				log.Printf("[FCM] Sent to %d device(s) for user %s", len(tokens)-len(failedTokens), event.UserID)
			}

			// Cleanup failed tokens
			if len(failedTokens) > 0 {
				log.Printf("[FCM] Cleaning up %d failed token(s)", len(failedTokens))
				if err := s.repo.DeleteFCMTokens(failedTokens); err != nil {
					log.Printf("[FCM] Failed to prune tokens: %v", err)
				}
			}
		}
	}

	if s.wpSender != nil && s.wpSender.Configured() {
		subs, err := s.repo.GetWebPushSubscriptionsByUserID(event.UserID)
		if err != nil {
			log.Printf("[WebPush] Error getting subscriptions for user %s: %v", event.UserID, err)
			return
		}

		for _, sub := range subs {
			gone, err := s.wpSender.Send(webpush.Subscription{
				Endpoint: sub.Endpoint,
				Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
			}, wpPayload)
			if err != nil {
				log.Printf("[WebPush] Failed to send to user %s: %v", event.UserID, err)
				continue
			}
			if gone {
				if err := s.repo.DeleteWebPushSubscription(sub.Endpoint); err != nil {
					log.Printf("[WebPush] Failed to prune subscription: %v", err)
				}
			}
		}
	}
}

// Compose builds the provider payloads for a match event, applying the
// default title/body when fields are missing and tagging by match id so
// duplicate notifications for the same match coalesce in the browser.
func Compose(event MatchEvent) (fcm.Notification, webpush.Payload) {
	title := event.Title
	if title == "" {
		title = DefaultTitle
	}
	body := event.Body
	if body == "" {
		body = DefaultBody
	}
	tag := event.MatchID
	if tag == "" {
		tag = DefaultTag
	}
	url := event.URL
	if url == "" {
		url = DefaultURL
	}

	data := map[string]string{"url": url}
	if event.MatchID != "" {
		data["match_id"] = event.MatchID
	}

	fcmPayload := fcm.Notification{
		Title: title,
		Body:  body,
		Tag:   tag,
		Data:  data,
		Link:  url,
	}
	wpPayload := webpush.Payload{
		Title: title,
		Body:  body,
		Tag:   tag,
		URL:   url,
		Data:  data,
	}
	return fcmPayload, wpPayload
}
