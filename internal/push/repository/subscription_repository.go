package repository

import (
	"time"

	pushdomain "arbitrage-gateway/internal/push/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository defines the interface for the push-subscription registry
type SubscriptionRepository interface {
	SaveFCMToken(userID, token, deviceType, userAgent string) error
	GetFCMTokensByUserID(userID string) ([]pushdomain.FCMToken, error)
	DeleteFCMToken(token string) error
	DeleteFCMTokens(tokens []string) error

	SaveWebPushSubscription(sub *pushdomain.WebPushSubscription) error
	GetWebPushSubscriptionsByUserID(userID string) ([]pushdomain.WebPushSubscription, error)
	DeleteWebPushSubscription(endpoint string) error
}

// subscriptionRepository implements SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new instance of subscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{
		db: db,
	}
}

// SaveFCMToken saves or updates an FCM token (atomic upsert on token)
func (r *subscriptionRepository) SaveFCMToken(userID, token, deviceType, userAgent string) error {
	fcmToken := &pushdomain.FCMToken{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_type", "user_agent", "updated_at"}),
	}).Create(fcmToken).Error
}

// GetFCMTokensByUserID returns all FCM tokens for a user
func (r *subscriptionRepository) GetFCMTokensByUserID(userID string) ([]pushdomain.FCMToken, error) {
	var tokens []pushdomain.FCMToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteFCMToken removes a specific FCM token
func (r *subscriptionRepository) DeleteFCMToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&pushdomain.FCMToken{}).Error
}

// DeleteFCMTokens removes tokens the push provider reported as dead
func (r *subscriptionRepository) DeleteFCMTokens(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.Where("token IN ?", tokens).Delete(&pushdomain.FCMToken{}).Error
}

// SaveWebPushSubscription saves or updates a Web Push subscription (upsert on endpoint)
func (r *subscriptionRepository) SaveWebPushSubscription(sub *pushdomain.WebPushSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "device_type", "user_agent", "updated_at"}),
	}).Create(sub).Error
}

// GetWebPushSubscriptionsByUserID returns all Web Push subscriptions for a user
func (r *subscriptionRepository) GetWebPushSubscriptionsByUserID(userID string) ([]pushdomain.WebPushSubscription, error) {
	var subs []pushdomain.WebPushSubscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteWebPushSubscription removes a subscription by endpoint
func (r *subscriptionRepository) DeleteWebPushSubscription(endpoint string) error {
	return r.db.Where("endpoint = ?", endpoint).Delete(&pushdomain.WebPushSubscription{}).Error
}
