package notifications

import (
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
)

// PreferenceDTO exposes channel switches without leaking stored credentials.
type PreferenceDTO struct {
	WebPushEnabled    bool `json:"web_push_enabled"`
	TelegramEnabled   bool `json:"telegram_enabled"`
	TelegramLinked    bool `json:"telegram_linked"`
	LineNotifyEnabled bool `json:"line_notify_enabled"`
	LineNotifyLinked  bool `json:"line_notify_linked"`
}

// UpdatePreferenceInput toggles channels. Nil pointers leave the current
// value untouched.
type UpdatePreferenceInput struct {
	WebPushEnabled    *bool `json:"web_push_enabled"`
	TelegramEnabled   *bool `json:"telegram_enabled"`
	LineNotifyEnabled *bool `json:"line_notify_enabled"`
}

// WebPushSubscriptionInput carries the browser subscription payload.
type WebPushSubscriptionInput struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	P256DH   string `json:"p256dh" validate:"required"`
	Auth     string `json:"auth" validate:"required"`
}

func preferenceFromModel(m *models.NotificationPreference) *PreferenceDTO {
	if m == nil {
		return nil
	}
	return &PreferenceDTO{
		WebPushEnabled:    m.WebPushEnabled,
		TelegramEnabled:   m.TelegramEnabled,
		TelegramLinked:    m.TelegramChatID != nil,
		LineNotifyEnabled: m.LineNotifyEnabled,
		LineNotifyLinked:  m.LineNotifyToken != nil,
	}
}
