package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunchtogether/lunchbox-backend/internal/notifications/channels"
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
)

// Payload shapes mirror what internal/orders writes into the outbox.
type orderStartedPayload struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrganizerID uuid.UUID `json:"organizerId"`
	StoreID     uuid.UUID `json:"storeId"`
	Title       string    `json:"title"`
	Deadline    time.Time `json:"deadline"`
}

type orderSummaryReadyPayload struct {
	OrderID          uuid.UUID `json:"orderId"`
	OrganizerID      uuid.UUID `json:"organizerId"`
	Title            string    `json:"title"`
	ParticipantCount int       `json:"participantCount"`
	TotalQuantity    int       `json:"totalQuantity"`
	TotalAmount      string    `json:"totalAmount"`
	CompletedAt      time.Time `json:"completedAt"`
}

type deadlineReminderPayload struct {
	OrderID         uuid.UUID `json:"orderId"`
	OrganizerID     uuid.UUID `json:"organizerId"`
	Title           string    `json:"title"`
	Deadline        time.Time `json:"deadline"`
	MinutesToGo     int       `json:"minutesToGo"`
	ReminderMinutes int       `json:"reminderMinutes"`
}

// Consumer turns stored outbox events into channel deliveries.
type Consumer struct {
	dispatcher *Dispatcher
	logg       *logger.Logger
}

// NewConsumer builds a consumer around the fan-out dispatcher.
func NewConsumer(dispatcher *Dispatcher, logg *logger.Logger) (*Consumer, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{dispatcher: dispatcher, logg: logg}, nil
}

// HandleEvent routes one outbox row to the dispatcher. Unknown event types
// are logged and dropped so a stale worker does not wedge the queue.
func (c *Consumer) HandleEvent(ctx context.Context, event *models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("decode envelope for event %s: %w", event.ID, err)
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": event.EventType,
		"order_id":   event.AggregateID.String(),
	})

	delivery, err := c.buildDelivery(event, envelope.Data)
	if err != nil {
		return err
	}
	if delivery == nil {
		c.logg.Warn(logCtx, "unhandled outbox event type; dropping")
		return nil
	}

	if err := c.dispatcher.Dispatch(ctx, *delivery); err != nil {
		return fmt.Errorf("dispatch %s: %w", event.EventType, err)
	}
	c.logg.Info(logCtx, "notification dispatched")
	return nil
}

func (c *Consumer) buildDelivery(event *models.OutboxEvent, data json.RawMessage) (*Delivery, error) {
	switch event.EventType {
	case enums.EventOrderStarted:
		var payload orderStartedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode order started payload: %w", err)
		}
		orderID := payload.OrderID
		return &Delivery{
			UserID:  payload.OrganizerID,
			OrderID: &orderID,
			Type:    enums.NotificationTypeOrderStarted,
			Message: channels.Message{
				Title: "Lunch order is open",
				Body: fmt.Sprintf("%s is taking submissions until %s.",
					payload.Title, payload.Deadline.Format("15:04 Jan 2")),
				Link: orderLink(orderID),
			},
		}, nil

	case enums.EventDeadlineReminder:
		var payload deadlineReminderPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode deadline reminder payload: %w", err)
		}
		orderID := payload.OrderID
		return &Delivery{
			UserID:  payload.OrganizerID,
			OrderID: &orderID,
			Type:    enums.NotificationTypeOrderDeadlineReminder,
			Message: channels.Message{
				Title: "Order deadline approaching",
				Body: fmt.Sprintf("%s closes in %d minutes.",
					payload.Title, payload.MinutesToGo),
				Link: orderLink(orderID),
			},
		}, nil

	case enums.EventOrderSummaryReady:
		var payload orderSummaryReadyPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode summary payload: %w", err)
		}
		orderID := payload.OrderID
		return &Delivery{
			UserID:  payload.OrganizerID,
			OrderID: &orderID,
			Type:    enums.NotificationTypeOrderSummaryCompleted,
			Message: channels.Message{
				Title: "Order summary ready",
				Body: fmt.Sprintf("%s closed with %d participants, %d items, %s total.",
					payload.Title, payload.ParticipantCount, payload.TotalQuantity, payload.TotalAmount),
				Link: orderLink(orderID),
			},
		}, nil
	}
	return nil, nil
}

func orderLink(orderID uuid.UUID) string {
	return "/orders/" + orderID.String()
}
