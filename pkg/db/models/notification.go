package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
)

// Notification records one delivery attempt of a message over one channel.
type Notification struct {
	ID        uuid.UUID                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OrderID   *uuid.UUID                `gorm:"type:uuid"`
	Type      enums.NotificationType    `gorm:"type:notification_type;not null"`
	Channel   enums.NotificationChannel `gorm:"type:notification_channel;not null"`
	Status    enums.NotificationStatus  `gorm:"type:notification_status;not null;default:pending"`
	Title     string                    `gorm:"type:text;not null"`
	Message   string                    `gorm:"type:text;not null"`
	Link      *string                   `gorm:"type:text"`
	Error     *string                   `gorm:"column:error"`
	ReadAt    *time.Time                `gorm:"type:timestamptz"`
	SentAt    *time.Time                `gorm:"type:timestamptz"`
	CreatedAt time.Time                 `gorm:"type:timestamptz;default:now()"`
}

// NotificationPreference holds per-user channel switches and the
// credentials each channel needs.
type NotificationPreference struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	WebPushEnabled    bool      `gorm:"column:web_push_enabled;not null;default:false"`
	TelegramEnabled   bool      `gorm:"column:telegram_enabled;not null;default:false"`
	TelegramChatID    *string   `gorm:"column:telegram_chat_id"`
	LineNotifyEnabled bool      `gorm:"column:line_notify_enabled;not null;default:false"`
	LineNotifyToken   *string   `gorm:"column:line_notify_token"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// WebPushSubscription is one browser push endpoint registered by a user.
type WebPushSubscription struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Endpoint  string    `gorm:"column:endpoint;not null;uniqueIndex"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"column:auth;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
