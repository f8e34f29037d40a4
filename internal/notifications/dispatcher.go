package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/internal/notifications/channels"
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
)

type webPushSender interface {
	Send(ctx context.Context, sub channels.WebPushSubscription, msg channels.Message) error
}

type telegramSender interface {
	Send(ctx context.Context, chatID string, msg channels.Message) error
}

type lineNotifySender interface {
	Send(ctx context.Context, token string, msg channels.Message) error
}

// Dispatcher fans one logical notification out to every channel the user
// enabled, recording a delivery row per channel. A nil sender means the
// channel is not configured in this deployment and is skipped.
type Dispatcher struct {
	repo     Repository
	webpush  webPushSender
	telegram telegramSender
	line     lineNotifySender
	logg     *logger.Logger
	now      func() time.Time
}

// DispatcherParams configure the fan-out dispatcher.
type DispatcherParams struct {
	Repo     Repository
	WebPush  webPushSender
	Telegram telegramSender
	Line     lineNotifySender
	Logger   *logger.Logger
}

// NewDispatcher builds a dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		repo:     params.Repo,
		webpush:  params.WebPush,
		telegram: params.Telegram,
		line:     params.Line,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Delivery is one logical notification addressed to a user.
type Delivery struct {
	UserID  uuid.UUID
	OrderID *uuid.UUID
	Type    enums.NotificationType
	Message channels.Message
}

// Dispatch delivers to all enabled channels. Channel failures are recorded
// on the per-channel rows and combined into the returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery Delivery) error {
	if delivery.UserID == uuid.Nil {
		return fmt.Errorf("user id required")
	}

	pref, err := d.repo.GetPreference(ctx, delivery.UserID)
	if err != nil {
		// No preference row means the user never opted into any channel.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load preferences: %w", err)
	}

	var errs []error
	if pref.WebPushEnabled && d.webpush != nil {
		if err := d.dispatchWebPush(ctx, delivery); err != nil {
			errs = append(errs, err)
		}
	}
	if pref.TelegramEnabled && pref.TelegramChatID != nil && d.telegram != nil {
		if err := d.dispatchTelegram(ctx, delivery, *pref.TelegramChatID); err != nil {
			errs = append(errs, err)
		}
	}
	if pref.LineNotifyEnabled && pref.LineNotifyToken != nil && d.line != nil {
		if err := d.dispatchLineNotify(ctx, delivery, pref, *pref.LineNotifyToken); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (d *Dispatcher) dispatchWebPush(ctx context.Context, delivery Delivery) error {
	row, err := d.createRow(ctx, delivery, enums.NotificationChannelWebPush)
	if err != nil {
		return err
	}

	subs, err := d.repo.ListWebPushSubscriptions(ctx, delivery.UserID)
	if err != nil {
		return d.fail(ctx, row, fmt.Errorf("list subscriptions: %w", err))
	}
	if len(subs) == 0 {
		return d.fail(ctx, row, fmt.Errorf("no push subscriptions registered"))
	}

	delivered := 0
	var lastErr error
	for _, sub := range subs {
		err := d.webpush.Send(ctx, channels.WebPushSubscription{
			Endpoint: sub.Endpoint,
			P256DH:   sub.P256DH,
			Auth:     sub.Auth,
		}, delivery.Message)
		if err == nil {
			delivered++
			continue
		}
		if errors.Is(err, channels.ErrSubscriptionGone) {
			// The browser dropped the endpoint; prune it quietly.
			if _, delErr := d.repo.DeleteWebPushSubscription(ctx, delivery.UserID, sub.Endpoint); delErr != nil {
				d.logg.Error(ctx, "prune dead push subscription", delErr)
			}
			continue
		}
		lastErr = err
	}

	if delivered == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("all push subscriptions gone")
		}
		return d.fail(ctx, row, lastErr)
	}
	return d.sent(ctx, row)
}

func (d *Dispatcher) dispatchTelegram(ctx context.Context, delivery Delivery, chatID string) error {
	row, err := d.createRow(ctx, delivery, enums.NotificationChannelTelegram)
	if err != nil {
		return err
	}
	if err := d.telegram.Send(ctx, chatID, delivery.Message); err != nil {
		return d.fail(ctx, row, err)
	}
	return d.sent(ctx, row)
}

func (d *Dispatcher) dispatchLineNotify(ctx context.Context, delivery Delivery, pref *models.NotificationPreference, token string) error {
	row, err := d.createRow(ctx, delivery, enums.NotificationChannelLineNotify)
	if err != nil {
		return err
	}
	sendErr := d.line.Send(ctx, token, delivery.Message)
	if sendErr == nil {
		return d.sent(ctx, row)
	}
	if errors.Is(sendErr, channels.ErrLineTokenRevoked) {
		pref.LineNotifyToken = nil
		pref.LineNotifyEnabled = false
		if saveErr := d.repo.SavePreference(ctx, pref); saveErr != nil {
			d.logg.Error(ctx, "drop revoked line notify token", saveErr)
		}
	}
	return d.fail(ctx, row, sendErr)
}

func (d *Dispatcher) createRow(ctx context.Context, delivery Delivery, channel enums.NotificationChannel) (*models.Notification, error) {
	var link *string
	if delivery.Message.Link != "" {
		value := delivery.Message.Link
		link = &value
	}
	row := &models.Notification{
		UserID:  delivery.UserID,
		OrderID: delivery.OrderID,
		Type:    delivery.Type,
		Channel: channel,
		Status:  enums.NotificationStatusPending,
		Title:   delivery.Message.Title,
		Message: delivery.Message.Body,
		Link:    link,
	}
	if err := d.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create %s notification: %w", channel, err)
	}
	return row, nil
}

func (d *Dispatcher) sent(ctx context.Context, row *models.Notification) error {
	if err := d.repo.MarkSent(ctx, row.ID, d.now()); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, row *models.Notification, cause error) error {
	if err := d.repo.MarkFailed(ctx, row.ID, cause.Error()); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return fmt.Errorf("%s delivery: %w", row.Channel, cause)
}
