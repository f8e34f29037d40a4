package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

// OrderItem is one line a participant submitted into a group order.
// Name and price are snapshotted from the menu item at submission time
// so later catalog edits do not rewrite history.
type OrderItem struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID          uuid.UUID              `gorm:"column:item_id;type:uuid;not null"`
	ParticipantName string                 `gorm:"column:participant_name;not null"`
	ItemName        string                 `gorm:"column:item_name;not null"`
	UnitPrice       decimal.Decimal        `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity        int                    `gorm:"column:quantity;not null"`
	Selections      types.OptionSelections `gorm:"column:selections;type:jsonb;not null;default:'{}'"`
	Note            *string                `gorm:"column:note"`
	Subtotal        decimal.Decimal        `gorm:"column:subtotal;type:numeric(10,2);not null"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}
