package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
)

// HistoryFilters narrow which closed and completed orders the history
// queries return. Zero values leave the dimension unfiltered.
type HistoryFilters struct {
	From      *time.Time
	To        *time.Time
	StoreName string
	Title     string
}

// Repository abstracts order persistence so services and jobs can run
// against a transaction-scoped instance.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByShareToken(ctx context.Context, token string) (*models.Order, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error)
	ListHistory(ctx context.Context, organizerID uuid.UUID, filters HistoryFilters, limit int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindOpenExpired(ctx context.Context, now time.Time, limit int) ([]models.Order, error)
	FindOpenInReminderWindow(ctx context.Context, now time.Time, limit int) ([]models.Order, error)
	MarkClosed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	ReplaceParticipantItems(ctx context.Context, orderID uuid.UUID, participant string, lines []models.OrderItem) error
	DeleteParticipantItems(ctx context.Context, orderID uuid.UUID, participant string) (int64, error)
}
