package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
)

// Order is one group ordering round against a store, shared with
// participants via an unguessable token.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizerID     uuid.UUID         `gorm:"column:organizer_id;type:uuid;not null"`
	StoreID         uuid.UUID         `gorm:"column:store_id;type:uuid;not null"`
	Title           string            `gorm:"column:title;not null"`
	Note            *string           `gorm:"column:note"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:open"`
	Deadline        time.Time         `gorm:"column:deadline;not null"`
	ReminderMinutes int               `gorm:"column:reminder_minutes;not null;default:30"`
	ShareToken      string            `gorm:"column:share_token;not null;uniqueIndex"`
	ClosedAt        *time.Time        `gorm:"column:closed_at"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
	Store           *Store            `gorm:"foreignKey:StoreID"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
