package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/lunchtogether/lunchbox-backend/internal/items"
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
)

// OrderDTO exposes a group order in API responses.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrganizerID     uuid.UUID         `json:"organizer_id"`
	StoreID         uuid.UUID         `json:"store_id"`
	StoreName       string            `json:"store_name,omitempty"`
	Title           string            `json:"title"`
	Note            *string           `json:"note,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	Deadline        time.Time         `json:"deadline"`
	ReminderMinutes int               `json:"reminder_minutes"`
	ShareToken      string            `json:"share_token,omitempty"`
	ClosedAt        *time.Time        `json:"closed_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Items           []OrderItemDTO    `json:"items,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderItemDTO is one submitted line in a group order.
type OrderItemDTO struct {
	ID              uuid.UUID         `json:"id"`
	ParticipantName string            `json:"participant_name"`
	ItemID          uuid.UUID         `json:"item_id"`
	ItemName        string            `json:"item_name"`
	UnitPrice       string            `json:"unit_price"`
	Quantity        int               `json:"quantity"`
	Selections      map[string]string `json:"selections,omitempty"`
	Note            *string           `json:"note,omitempty"`
	Subtotal        string            `json:"subtotal"`
	CreatedAt       time.Time         `json:"created_at"`
}

// PublicOrderDTO is the token-scoped view participants see: the order
// without its share token plus the store menu to pick from.
type PublicOrderDTO struct {
	Order OrderDTO        `json:"order"`
	Menu  []items.ItemDTO `json:"menu"`
}

// ParticipantSummaryDTO aggregates one participant's lines.
type ParticipantSummaryDTO struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

// ItemAggregateDTO aggregates quantities per distinct item and selection set.
type ItemAggregateDTO struct {
	ItemName   string `json:"item_name"`
	Selections string `json:"selections,omitempty"`
	Quantity   int    `json:"quantity"`
	Amount     string `json:"amount"`
}

// OrderStatsDTO summarizes the order for the organizer view and exports.
type OrderStatsDTO struct {
	ParticipantCount int                     `json:"participant_count"`
	TotalQuantity    int                     `json:"total_quantity"`
	TotalAmount      string                  `json:"total_amount"`
	AverageAmount    string                  `json:"average_amount"`
	Participants     []ParticipantSummaryDTO `json:"participants"`
	Items            []ItemAggregateDTO      `json:"items"`
}

// OrderDetailDTO bundles the order with its computed statistics.
type OrderDetailDTO struct {
	Order OrderDTO      `json:"order"`
	Stats OrderStatsDTO `json:"stats"`
}

// FromModel maps the persisted order into a DTO. The share token is
// included; callers rendering the public view must strip it.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}

	dto := &OrderDTO{
		ID:              m.ID,
		OrganizerID:     m.OrganizerID,
		StoreID:         m.StoreID,
		Title:           m.Title,
		Note:            m.Note,
		Status:          m.Status,
		Deadline:        m.Deadline,
		ReminderMinutes: m.ReminderMinutes,
		ShareToken:      m.ShareToken,
		ClosedAt:        m.ClosedAt,
		CompletedAt:     m.CompletedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Store != nil {
		dto.StoreName = m.Store.Name
	}
	for i := range m.Items {
		dto.Items = append(dto.Items, itemFromModel(&m.Items[i]))
	}
	return dto
}

func itemFromModel(m *models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:              m.ID,
		ParticipantName: m.ParticipantName,
		ItemID:          m.ItemID,
		ItemName:        m.ItemName,
		UnitPrice:       m.UnitPrice.StringFixed(2),
		Quantity:        m.Quantity,
		Selections:      map[string]string(m.Selections),
		Note:            m.Note,
		Subtotal:        m.Subtotal.StringFixed(2),
		CreatedAt:       m.CreatedAt,
	}
}
