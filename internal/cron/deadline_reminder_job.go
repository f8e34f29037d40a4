package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/internal/orders"
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	"github.com/lunchtogether/lunchbox-backend/pkg/logger"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
)

const defaultReminderBatchSize = 200

// DeadlineReminderJobParams configure the reminder scheduler.
type DeadlineReminderJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Repo      orders.Repository
	Outbox    outboxEmitter
	BatchSize int
}

// NewDeadlineReminderJob builds the job that fires one reminder per order
// when its reminder window opens. The outbox dedup key makes sure repeated
// sweeps inside the window do not emit twice.
func NewDeadlineReminderJob(params DeadlineReminderJobParams) (Job, error) {
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
		batchSize = defaultReminderBatchSize
	}
	return &deadlineReminderJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repo,
		outbox:    params.Outbox,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type deadlineReminderJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      orders.Repository
	outbox    outboxEmitter
	batchSize int
	now       func() time.Time
}

func (j *deadlineReminderJob) Name() string { return "deadline-reminder" }

func (j *deadlineReminderJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	due, err := j.repo.FindOpenInReminderWindow(ctx, now, j.batchSize)
	if err != nil {
		return fmt.Errorf("query orders in reminder window: %w", err)
	}

	var errs []error
	emitted := 0
	for i := range due {
		if err := j.emitReminder(ctx, &due[i], now); err != nil {
			errs = append(errs, fmt.Errorf("remind order %s: %w", due[i].ID, err))
			continue
		}
		emitted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": emitted})
	j.logg.Info(logCtx, "deadline reminder loop complete")
	return multierr.Combine(errs...)
}

func (j *deadlineReminderJob) emitReminder(ctx context.Context, order *models.Order, now time.Time) error {
	minutesToGo := int(order.Deadline.Sub(now).Round(time.Minute) / time.Minute)
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeadlineReminder,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: orders.DeadlineReminderEvent{
				OrderID:         order.ID,
				OrganizerID:     order.OrganizerID,
				Title:           order.Title,
				Deadline:        order.Deadline,
				MinutesToGo:     minutesToGo,
				ReminderMinutes: order.ReminderMinutes,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
}
