package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
)

type itemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceOptions(ctx context.Context, itemID uuid.UUID, options []models.CustomizationOption) error
}

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service exposes menu item operations.
type Service interface {
	Create(ctx context.Context, ownerID, storeID uuid.UUID, input CreateItemInput) (*ItemDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]ItemDTO, error)
	Update(ctx context.Context, ownerID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	SetAvailability(ctx context.Context, ownerID, itemID uuid.UUID, available bool) (*ItemDTO, error)
	Delete(ctx context.Context, ownerID, itemID uuid.UUID) error
}

type service struct {
	repo   itemRepository
	stores storeRepository
}

// NewService builds an item service with the provided repositories.
func NewService(repo itemRepository, stores storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, stores: stores}, nil
}

// CreateItemInput captures creation fields from the API layer.
type CreateItemInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	Tags        []string
	Options     []OptionInput
}

// UpdateItemInput captures the allowed item fields for mutation. A non-nil
// Options slice replaces the full option set.
type UpdateItemInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Tags        *[]string
	Options     *[]OptionInput
}

func (s *service) Create(ctx context.Context, ownerID, storeID uuid.UUID, input CreateItemInput) (*ItemDTO, error) {
	if err := s.checkStoreOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
	}
	if err := validateOptions(input.Options); err != nil {
		return nil, err
	}

	item := &models.Item{
		StoreID:     storeID,
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Tags:        append([]string(nil), input.Tags...),
		IsAvailable: true,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}

	if len(input.Options) > 0 {
		if err := s.repo.ReplaceOptions(ctx, created.ID, optionModels(created.ID, input.Options)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save item options")
		}
	}

	return s.GetByID(ctx, created.ID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return FromModel(item), nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]ItemDTO, error) {
	items, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	result := make([]ItemDTO, 0, len(items))
	for i := range items {
		result = append(result, *FromModel(&items[i]))
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, ownerID, itemID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.loadOwnedItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		item.Price = *input.Price
	}
	if input.Tags != nil {
		item.Tags = append([]string(nil), (*input.Tags)...)
	}

	// Save without associations so a stale Options preload cannot clobber
	// the replace below.
	item.Options = nil
	if _, err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}

	if input.Options != nil {
		if err := validateOptions(*input.Options); err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceOptions(ctx, item.ID, optionModels(item.ID, *input.Options)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace item options")
		}
	}

	return s.GetByID(ctx, item.ID)
}

func (s *service) SetAvailability(ctx context.Context, ownerID, itemID uuid.UUID, available bool) (*ItemDTO, error) {
	item, err := s.loadOwnedItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}

	item.IsAvailable = available
	item.Options = nil
	if _, err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	return s.GetByID(ctx, item.ID)
}

func (s *service) Delete(ctx context.Context, ownerID, itemID uuid.UUID) error {
	if _, err := s.loadOwnedItem(ctx, ownerID, itemID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	return nil
}

func (s *service) loadOwnedItem(ctx context.Context, ownerID, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if err := s.checkStoreOwner(ctx, ownerID, item.StoreID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) checkStoreOwner(ctx context.Context, ownerID, storeID uuid.UUID) error {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another organizer")
	}
	return nil
}

func validateOptions(options []OptionInput) error {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		name := strings.TrimSpace(opt.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "option name is required")
		}
		if _, dup := seen[name]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate option %q", name))
		}
		seen[name] = struct{}{}
		if len(opt.Choices) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("option %q needs at least one choice", name))
		}
	}
	return nil
}
