package domain

import "time"

// FCMToken represents a Firebase Cloud Messaging device token registered for
// push notifications. Tokens are device-issued and may rotate; the backend
// stays authoritative, this table is the gateway's delivery mirror.
type FCMToken struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index"`
	Token      string    `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	DeviceType string    `json:"device_type"`                   // ios, android, desktop
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WebPushSubscription represents a native Web Push subscription
// (endpoint + encryption keys) for a device.
type WebPushSubscription struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index"`
	Endpoint   string    `json:"endpoint" gorm:"uniqueIndex;not null"`
	P256dh     string    `json:"-" gorm:"not null"`
	Auth       string    `json:"-" gorm:"not null"`
	DeviceType string    `json:"device_type"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
