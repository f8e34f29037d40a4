package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
)

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	if err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceCreateValidatesName(t *testing.T) {
	svc, err := NewService(&stubStoreRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Create(context.Background(), uuid.New(), CreateStoreInput{Name: "   "})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}

func TestServiceCreateSuccess(t *testing.T) {
	repo := &stubStoreRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ownerID := uuid.New()
	dto, err := svc.Create(context.Background(), ownerID, CreateStoreInput{
		Name:  "  Thai Corner  ",
		Phone: stringPtr("02-555-0000"),
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if dto.Name != "Thai Corner" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.OwnerID != ownerID {
		t.Fatalf("expected owner %s got %s", ownerID, dto.OwnerID)
	}
	if !dto.IsActive {
		t.Fatal("expected new store to be active")
	}
}

func TestServiceGetByIDNotFound(t *testing.T) {
	repo := &stubStoreRepo{err: gorm.ErrRecordNotFound}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.GetByID(context.Background(), uuid.New())
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", gotErr)
	}
}

func TestServiceGetByIDDependencyError(t *testing.T) {
	repo := &stubStoreRepo{err: errors.New("boom")}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.GetByID(context.Background(), uuid.New())
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", gotErr)
	}
}

func TestServiceUpdateSuccess(t *testing.T) {
	store := baseStore()
	repo := &stubStoreRepo{store: store}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	newDescription := "soups and noodles"
	dto, err := svc.Update(context.Background(), store.OwnerID, store.ID, UpdateStoreInput{
		Name:        stringPtr("Updated Kitchen"),
		Description: &newDescription,
	})
	if err != nil {
		t.Fatalf("update store: %v", err)
	}
	if dto.Name != "Updated Kitchen" {
		t.Fatalf("expected name updated, got %s", dto.Name)
	}
	if dto.Description == nil || *dto.Description != newDescription {
		t.Fatalf("expected description %q got %v", newDescription, dto.Description)
	}
	if repo.updated == nil {
		t.Fatal("expected repository update call")
	}
}

func TestServiceUpdateForbiddenForOtherOwner(t *testing.T) {
	store := baseStore()
	repo := &stubStoreRepo{store: store}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Update(context.Background(), uuid.New(), store.ID, UpdateStoreInput{})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden code, got %v", gotErr)
	}
}

func TestServiceSetActive(t *testing.T) {
	store := baseStore()
	repo := &stubStoreRepo{store: store}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.SetActive(context.Background(), store.OwnerID, store.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if dto.IsActive {
		t.Fatal("expected store deactivated")
	}
}

func TestDeleteRefusedWhileOrdersExist(t *testing.T) {
	store := baseStore()
	repo := &stubStoreRepo{store: store, orderCount: 3}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Delete(context.Background(), store.OwnerID, store.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.deleted {
		t.Fatal("store should not be deleted")
	}
}

func TestDeleteRemovesOwnedStore(t *testing.T) {
	store := baseStore()
	repo := &stubStoreRepo{store: store}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Delete(context.Background(), store.OwnerID, store.ID); err != nil {
		t.Fatalf("delete store: %v", err)
	}
	if !repo.deleted {
		t.Fatal("expected store deleted")
	}
}

func TestDeleteRejectsForeignStore(t *testing.T) {
	store := baseStore()
	repo := &stubStoreRepo{store: store}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Delete(context.Background(), uuid.New(), store.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func baseStore() *models.Store {
	return &models.Store{
		ID:          uuid.New(),
		Name:        "Test Kitchen",
		Phone:       stringPtr("02-555-1234"),
		Description: stringPtr("office favorite"),
		IsActive:    true,
		OwnerID:     uuid.New(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

type stubStoreRepo struct {
	store      *models.Store
	stores     []models.Store
	err        error
	updateErr  error
	updated    *models.Store
	orderCount int64
	deleted    bool
}

func (s *stubStoreRepo) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	if s.err != nil {
		return nil, s.err
	}
	store := dto.ToModel()
	store.ID = uuid.New()
	return store, nil
}

func (s *stubStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return s.store, s.err
}

func (s *stubStoreRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error) {
	return s.stores, s.err
}

func (s *stubStoreRepo) FindActive(ctx context.Context) ([]models.Store, error) {
	return s.stores, s.err
}

func (s *stubStoreRepo) Update(ctx context.Context, store *models.Store) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = store
	return nil
}

func (s *stubStoreRepo) CountOrders(ctx context.Context, storeID uuid.UUID) (int64, error) {
	return s.orderCount, nil
}

func (s *stubStoreRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = true
	return nil
}

func stringPtr(s string) *string { return &s }
