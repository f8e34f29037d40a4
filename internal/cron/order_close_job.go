package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/internal/orders"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
)

const defaultCloseBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderCloseJobParams configure the deadline sweeper.
type OrderCloseJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Repo      orders.Repository
	Outbox    outboxEmitter
	BatchSize int
}

// NewOrderCloseJob builds the job that closes open orders past their
// deadline and announces their summaries.
func NewOrderCloseJob(params OrderCloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultCloseBatchSize
	}
	return &orderCloseJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repo,
		outbox:    params.Outbox,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type orderCloseJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      orders.Repository
	outbox    outboxEmitter
	batchSize int
	now       func() time.Time
}

func (j *orderCloseJob) Name() string { return "order-close-sweep" }

func (j *orderCloseJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.FindOpenExpired(ctx, now, j.batchSize)
	if err != nil {
		return fmt.Errorf("query expired orders: %w", err)
	}

	var errs []error
	closed := 0
	for i := range expired {
		if err := j.closeOrder(ctx, expired[i].ID, now); err != nil {
			errs = append(errs, fmt.Errorf("close order %s: %w", expired[i].ID, err))
			continue
		}
		closed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": closed})
	j.logg.Info(logCtx, "order close loop complete")
	return multierr.Combine(errs...)
}

func (j *orderCloseJob) closeOrder(ctx context.Context, orderID uuid.UUID, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		changed, err := repo.MarkClosed(ctx, orderID, now)
		if err != nil {
			return err
		}
		// Someone else already closed it between the query and this tx.
		if changed == 0 {
			return nil
		}

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		stats := orders.Statistics(order)
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSummaryReady,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: orders.OrderSummaryReadyEvent{
				OrderID:          order.ID,
				OrganizerID:      order.OrganizerID,
				Title:            order.Title,
				ParticipantCount: stats.ParticipantCount,
				TotalQuantity:    stats.TotalQuantity,
				TotalAmount:      stats.TotalAmount,
				CompletedAt:      now,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
}
