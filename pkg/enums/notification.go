package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrderStarted          NotificationType = "order_started"
	NotificationTypeOrderDeadlineReminder NotificationType = "order_deadline_reminder"
	NotificationTypeOrderSummaryCompleted NotificationType = "order_summary_completed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderStarted,
	NotificationTypeOrderDeadlineReminder,
	NotificationTypeOrderSummaryCompleted,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationChannel identifies the delivery transport for one notification row.
type NotificationChannel string

const (
	NotificationChannelWebPush    NotificationChannel = "web_push"
	NotificationChannelLineNotify NotificationChannel = "line_notify"
	NotificationChannelTelegram   NotificationChannel = "telegram"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelWebPush,
	NotificationChannelLineNotify,
	NotificationChannelTelegram,
}

func (c NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// NotificationStatus records the delivery outcome per channel.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)
