package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

// Item represents one menu entry in a store.
type Item struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID             `gorm:"column:store_id;type:uuid;not null"`
	Name        string                `gorm:"column:name;not null"`
	Description *string               `gorm:"column:description"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(10,2);not null"`
	Tags        pq.StringArray        `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	IsAvailable bool                  `gorm:"column:is_available;not null;default:true"`
	Options     []CustomizationOption `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// CustomizationOption is one configurable axis on an item, such as size
// or spice level, with the set of allowed choices.
type CustomizationOption struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID    uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	Name      string           `gorm:"column:name;not null"`
	Choices   types.StringList `gorm:"column:choices;type:jsonb;not null;default:'[]'"`
	Required  bool             `gorm:"column:required;not null;default:false"`
	Position  int              `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
