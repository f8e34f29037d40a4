package items

import (
	"time"

	"github.com/google/uuid"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

// ItemDTO exposes menu item data in API responses.
type ItemDTO struct {
	ID          uuid.UUID   `json:"id"`
	StoreID     uuid.UUID   `json:"store_id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Price       string      `json:"price"`
	Tags        []string    `json:"tags"`
	IsAvailable bool        `json:"is_available"`
	Options     []OptionDTO `json:"options"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OptionDTO exposes one customization axis on an item.
type OptionDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Choices  []string  `json:"choices"`
	Required bool      `json:"required"`
	Position int       `json:"position"`
}

// OptionInput carries one customization option from the API layer.
type OptionInput struct {
	Name     string
	Choices  []string
	Required bool
}

// FromModel maps the persisted item into a DTO.
func FromModel(m *models.Item) *ItemDTO {
	if m == nil {
		return nil
	}

	dto := &ItemDTO{
		ID:          m.ID,
		StoreID:     m.StoreID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price.StringFixed(2),
		Tags:        append([]string(nil), m.Tags...),
		IsAvailable: m.IsAvailable,
		Options:     make([]OptionDTO, 0, len(m.Options)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for _, opt := range m.Options {
		dto.Options = append(dto.Options, OptionDTO{
			ID:       opt.ID,
			Name:     opt.Name,
			Choices:  append([]string(nil), opt.Choices...),
			Required: opt.Required,
			Position: opt.Position,
		})
	}
	return dto
}

func optionModels(itemID uuid.UUID, inputs []OptionInput) []models.CustomizationOption {
	result := make([]models.CustomizationOption, 0, len(inputs))
	for i, input := range inputs {
		result = append(result, models.CustomizationOption{
			ItemID:   itemID,
			Name:     input.Name,
			Choices:  types.StringList(append([]string(nil), input.Choices...)),
			Required: input.Required,
			Position: i,
		})
	}
	return result
}
