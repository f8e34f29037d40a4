package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
)

type storeRepository interface {
	Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error)
	FindActive(ctx context.Context) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
	CountOrders(ctx context.Context, storeID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error)
	ListActive(ctx context.Context) ([]StoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	SetActive(ctx context.Context, ownerID, storeID uuid.UUID, active bool) (*StoreDTO, error)
	Delete(ctx context.Context, ownerID, storeID uuid.UUID) error
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

// CreateStoreInput captures creation fields from the API layer.
type CreateStoreInput struct {
	Name        string
	Description *string
	Phone       *string
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name        *string
	Description *string
	Phone       *string
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}

	store, err := s.repo.Create(ctx, CreateStoreDTO{
		Name:        name,
		Description: cloneStringPtr(input.Description),
		Phone:       cloneStringPtr(input.Phone),
		OwnerID:     ownerID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error) {
	stores, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return toDTOs(stores), nil
}

func (s *service) ListActive(ctx context.Context) ([]StoreDTO, error) {
	stores, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active stores")
	}
	return toDTOs(stores), nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be empty")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = cloneStringPtr(input.Description)
	}
	if input.Phone != nil {
		store.Phone = cloneStringPtr(input.Phone)
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func (s *service) SetActive(ctx context.Context, ownerID, storeID uuid.UUID, active bool) (*StoreDTO, error) {
	store, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	store.IsActive = active
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

// Delete removes a store and its menu. Stores referenced by any group
// order keep their rows so history stays resolvable.
func (s *service) Delete(ctx context.Context, ownerID, storeID uuid.UUID) error {
	store, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, store.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count store orders")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "store has existing orders")
	}

	if err := s.repo.Delete(ctx, store.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, ownerID, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another organizer")
	}
	return store, nil
}

func toDTOs(stores []models.Store) []StoreDTO {
	result := make([]StoreDTO, 0, len(stores))
	for i := range stores {
		result = append(result, *FromModel(&stores[i]))
	}
	return result
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
