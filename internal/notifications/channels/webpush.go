package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/lunchtogether/lunchbox-backend/pkg/config"
)

// ErrSubscriptionGone signals that the push endpoint no longer exists and
// the stored subscription should be pruned.
var ErrSubscriptionGone = errors.New("push subscription gone")

// WebPushSubscription carries the endpoint and keys a browser registered.
type WebPushSubscription struct {
	Endpoint string
	P256DH   string
	Auth     string
}

// WebPushSender delivers messages through the Web Push protocol with VAPID
// authentication.
type WebPushSender struct {
	cfg config.WebPushConfig
}

// NewWebPushSender builds a sender from the VAPID configuration.
func NewWebPushSender(cfg config.WebPushConfig) (*WebPushSender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, errors.New("vapid key pair required")
	}
	return &WebPushSender{cfg: cfg}, nil
}

// Send pushes the message to one subscription endpoint.
func (s *WebPushSender) Send(ctx context.Context, sub WebPushSubscription, msg Message) error {
	payload, err := json.Marshal(map[string]string{
		"title": msg.Title,
		"body":  msg.Body,
		"link":  msg.Link,
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTLSeconds,
	})
	if err != nil {
		return fmt.Errorf("send web push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
