package orders

import (
	"time"

	"github.com/google/uuid"
)

// OrderStartedEvent announces a freshly opened group order.
type OrderStartedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrganizerID uuid.UUID `json:"organizerId"`
	StoreID     uuid.UUID `json:"storeId"`
	Title       string    `json:"title"`
	Deadline    time.Time `json:"deadline"`
}

// OrderSummaryReadyEvent announces that an order reached completed and its
// summary can be delivered.
type OrderSummaryReadyEvent struct {
	OrderID          uuid.UUID `json:"orderId"`
	OrganizerID      uuid.UUID `json:"organizerId"`
	Title            string    `json:"title"`
	ParticipantCount int       `json:"participantCount"`
	TotalQuantity    int       `json:"totalQuantity"`
	TotalAmount      string    `json:"totalAmount"`
	CompletedAt      time.Time `json:"completedAt"`
}

// DeadlineReminderEvent fires once per order when its reminder window opens.
type DeadlineReminderEvent struct {
	OrderID         uuid.UUID `json:"orderId"`
	OrganizerID     uuid.UUID `json:"organizerId"`
	Title           string    `json:"title"`
	Deadline        time.Time `json:"deadline"`
	MinutesToGo     int       `json:"minutesToGo"`
	ReminderMinutes int       `json:"reminderMinutes"`
}
