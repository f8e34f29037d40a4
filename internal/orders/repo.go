package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("participant_name ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByShareToken(ctx context.Context, token string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Store").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("participant_name ASC, created_at ASC")
		}).
		Where("share_token = ?", token).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Store").
		Where("organizer_id = ?", organizerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// ListHistory returns the organizer's closed and completed orders, newest
// first. Name filters match case-insensitively on substrings.
func (r *repository) ListHistory(ctx context.Context, organizerID uuid.UUID, filters HistoryFilters, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Store").
		Joins("JOIN stores ON stores.id = orders.store_id").
		Where("orders.organizer_id = ?", organizerID).
		Where("orders.status IN ?", []enums.OrderStatus{enums.OrderStatusClosed, enums.OrderStatusCompleted})
	if filters.From != nil {
		query = query.Where("orders.created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("orders.created_at < ?", *filters.To)
	}
	if name := strings.TrimSpace(filters.StoreName); name != "" {
		query = query.Where("lower(stores.name) LIKE lower(?)", "%"+name+"%")
	}
	if title := strings.TrimSpace(filters.Title); title != "" {
		query = query.Where("lower(orders.title) LIKE lower(?)", "%"+title+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	err := query.Order("orders.created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *repository) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes the order and its submitted lines.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Order{}).Error
}

// FindOpenExpired returns open orders whose deadline already passed,
// oldest deadlines first so the sweeper drains the backlog in order.
func (r *repository) FindOpenExpired(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusOpen).
		Where("deadline <= ?", now).
		Order("deadline ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, err
}

// FindOpenInReminderWindow returns open orders whose reminder window has
// started but whose deadline has not passed yet.
func (r *repository) FindOpenInReminderWindow(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusOpen).
		Where("deadline > ?", now).
		Where("deadline <= ?", now.Add(24*time.Hour)).
		Order("deadline ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}

	// reminder_minutes varies per order, so the window check happens here
	// rather than in SQL.
	matched := orders[:0]
	for _, order := range orders {
		windowStart := order.Deadline.Add(-time.Duration(order.ReminderMinutes) * time.Minute)
		if !now.Before(windowStart) {
			matched = append(matched, order)
		}
	}
	return matched, nil
}

// MarkClosed flips an open order to closed. Returns the number of rows
// changed so callers can detect a concurrent sweep.
func (r *repository) MarkClosed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusOpen).
		Updates(map[string]any{
			"status":     enums.OrderStatusClosed,
			"closed_at":  at,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

// ReplaceParticipantItems swaps out everything the participant previously
// submitted for the given lines. Resubmitting is therefore idempotent.
func (r *repository) ReplaceParticipantItems(ctx context.Context, orderID uuid.UUID, participant string, lines []models.OrderItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.
		Where("order_id = ? AND participant_name = ?", orderID, participant).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.Create(&lines).Error
}

// DeleteParticipantItems removes every line the participant submitted.
func (r *repository) DeleteParticipantItems(ctx context.Context, orderID uuid.UUID, participant string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("order_id = ? AND participant_name = ?", orderID, participant).
		Delete(&models.OrderItem{})
	return result.RowsAffected, result.Error
}
