package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/internal/items"
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
	"github.com/lunchtogether/lunchbox-backend/pkg/sharetoken"
	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

const fallbackReminderMinutes = 30

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type itemReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Item, error)
}

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service defines the group order operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, organizerID uuid.UUID, status *enums.OrderStatus, limit int) ([]OrderDTO, error)
	History(ctx context.Context, organizerID uuid.UUID, filters HistoryFilters, limit int) ([]OrderDTO, error)
	Get(ctx context.Context, organizerID, orderID uuid.UUID) (*OrderDetailDTO, error)
	GetByShareToken(ctx context.Context, token string) (*PublicOrderDTO, error)
	Update(ctx context.Context, input UpdateOrderInput) (*OrderDTO, error)
	RegenerateToken(ctx context.Context, organizerID, orderID uuid.UUID) (*OrderDTO, error)
	Delete(ctx context.Context, organizerID, orderID uuid.UUID) error
	Submit(ctx context.Context, token string, input SubmitInput) ([]OrderItemDTO, error)
	CancelSubmission(ctx context.Context, token, participant string) error
	ExportCSV(ctx context.Context, organizerID, orderID uuid.UUID, w io.Writer) error
	ExportPDF(ctx context.Context, organizerID, orderID uuid.UUID, w io.Writer) error
}

type service struct {
	repo                   Repository
	items                  itemReader
	stores                 storeReader
	tx                     txRunner
	outbox                 outboxPublisher
	defaultReminderMinutes int
	newToken               func() (string, error)
	now                    func() time.Time
}

// CreateOrderInput carries everything needed to open a group order.
type CreateOrderInput struct {
	OrganizerID     uuid.UUID
	StoreID         uuid.UUID
	Title           string
	Note            *string
	Deadline        time.Time
	ReminderMinutes *int
}

// UpdateOrderInput carries the mutable order fields. Nil pointers leave
// the current value untouched.
type UpdateOrderInput struct {
	OrganizerID     uuid.UUID
	OrderID         uuid.UUID
	Title           *string
	Note            *string
	Deadline        *time.Time
	ReminderMinutes *int
	Status          *enums.OrderStatus
}

// SubmitLine is one menu item a participant wants, with chosen options.
type SubmitLine struct {
	ItemID     uuid.UUID
	Quantity   int
	Selections map[string]string
	Note       *string
}

// SubmitInput replaces the participant's full submission in one shot.
type SubmitInput struct {
	ParticipantName string
	Lines           []SubmitLine
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo                   Repository
	Items                  itemReader
	Stores                 storeReader
	Tx                     txRunner
	Outbox                 outboxPublisher
	DefaultReminderMinutes int
	NewToken               func() (string, error)
	Now                    func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("items reader required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("stores reader required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.DefaultReminderMinutes <= 0 {
		params.DefaultReminderMinutes = fallbackReminderMinutes
	}
	if params.NewToken == nil {
		params.NewToken = sharetoken.New
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:                   params.Repo,
		items:                  params.Items,
		stores:                 params.Stores,
		tx:                     params.Tx,
		outbox:                 params.Outbox,
		defaultReminderMinutes: params.DefaultReminderMinutes,
		newToken:               params.NewToken,
		now:                    params.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.OrganizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	now := s.now()
	if !input.Deadline.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline must be in the future")
	}

	reminderMinutes := s.defaultReminderMinutes
	if input.ReminderMinutes != nil {
		if *input.ReminderMinutes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reminder minutes must not be negative")
		}
		reminderMinutes = *input.ReminderMinutes
	}

	store, err := s.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	// Another organizer's store reads as absent, not forbidden, so the
	// response does not confirm the store exists.
	if store.OwnerID != input.OrganizerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is not accepting orders")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
	}

	order := &models.Order{
		OrganizerID:     input.OrganizerID,
		StoreID:         store.ID,
		Title:           title,
		Note:            input.Note,
		Status:          enums.OrderStatusOpen,
		Deadline:        input.Deadline.UTC(),
		ReminderMinutes: reminderMinutes,
		ShareToken:      token,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStarted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         organizerActor(input.OrganizerID),
			Data: OrderStartedEvent{
				OrderID:     order.ID,
				OrganizerID: order.OrganizerID,
				StoreID:     order.StoreID,
				Title:       order.Title,
				Deadline:    order.Deadline,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Store = store
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, organizerID uuid.UUID, status *enums.OrderStatus, limit int) ([]OrderDTO, error) {
	if organizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByOrganizer(ctx, organizerID, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	result := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *FromModel(&rows[i]))
	}
	return result, nil
}

// History lists the organizer's finished orders, optionally narrowed by
// date range, store name, or order title.
func (s *service) History(ctx context.Context, organizerID uuid.UUID, filters HistoryFilters, limit int) ([]OrderDTO, error) {
	if organizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "history range end precedes start")
	}
	rows, err := s.repo.ListHistory(ctx, organizerID, filters, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order history")
	}

	result := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, organizerID, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.loadOwned(ctx, organizerID, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetailDTO{
		Order: *FromModel(order),
		Stats: Statistics(order),
	}, nil
}

func (s *service) GetByShareToken(ctx context.Context, token string) (*PublicOrderDTO, error) {
	order, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	menuRows, err := s.items.ListByStore(ctx, order.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load menu")
	}
	menu := make([]items.ItemDTO, 0, len(menuRows))
	for i := range menuRows {
		if !menuRows[i].IsAvailable {
			continue
		}
		menu = append(menu, *items.FromModel(&menuRows[i]))
	}

	dto := FromModel(order)
	dto.ShareToken = ""
	return &PublicOrderDTO{Order: *dto, Menu: menu}, nil
}

func (s *service) Update(ctx context.Context, input UpdateOrderInput) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, input.OrganizerID, input.OrderID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if input.Title != nil || input.Note != nil || input.Deadline != nil || input.ReminderMinutes != nil {
		if order.Status != enums.OrderStatusOpen {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only open orders can be edited")
		}
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		order.Title = title
	}
	if input.Note != nil {
		order.Note = input.Note
	}
	if input.Deadline != nil {
		if !input.Deadline.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "deadline must be in the future")
		}
		order.Deadline = input.Deadline.UTC()
	}
	if input.ReminderMinutes != nil {
		if *input.ReminderMinutes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reminder minutes must not be negative")
		}
		order.ReminderMinutes = *input.ReminderMinutes
	}

	completing := false
	if input.Status != nil {
		target := *input.Status
		if !target.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		if !order.Status.CanTransitionTo(target) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}
		switch target {
		case enums.OrderStatusClosed:
			order.ClosedAt = &now
		case enums.OrderStatusCompleted:
			if order.ClosedAt == nil {
				order.ClosedAt = &now
			}
			order.CompletedAt = &now
			completing = true
		}
		order.Status = target
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
		if !completing {
			return nil
		}
		// The close sweeper may have announced the summary already; the
		// dedup key guarantees at most one summary event per order.
		stats := Statistics(order)
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSummaryReady,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         organizerActor(input.OrganizerID),
			Data: OrderSummaryReadyEvent{
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
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) RegenerateToken(ctx context.Context, organizerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwned(ctx, organizerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot be reshared")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
	}
	order.ShareToken = token
	if _, err := s.repo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}
	return FromModel(order), nil
}

func (s *service) Delete(ctx context.Context, organizerID, orderID uuid.UUID) error {
	order, err := s.loadOwned(ctx, organizerID, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, order.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	return nil
}

func (s *service) Submit(ctx context.Context, token string, input SubmitInput) ([]OrderItemDTO, error) {
	order, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.acceptingSubmissions(order); err != nil {
		return nil, err
	}

	participant := strings.TrimSpace(input.ParticipantName)
	if participant == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "participant name is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	lines := make([]models.OrderItem, 0, len(input.Lines))
	for i, line := range input.Lines {
		built, err := s.buildLine(ctx, order, participant, line)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				return nil, typed.WithDetails(map[string]any{"line": i})
			}
			return nil, err
		}
		lines = append(lines, *built)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceParticipantItems(ctx, order.ID, participant, lines)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store submission")
	}

	result := make([]OrderItemDTO, 0, len(lines))
	for i := range lines {
		result = append(result, itemFromModel(&lines[i]))
	}
	return result, nil
}

func (s *service) CancelSubmission(ctx context.Context, token, participant string) error {
	order, err := s.loadByToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.acceptingSubmissions(order); err != nil {
		return err
	}

	participant = strings.TrimSpace(participant)
	if participant == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "participant name is required")
	}

	// Cancelling with nothing submitted is a no-op, so retries are safe.
	if _, err := s.repo.DeleteParticipantItems(ctx, order.ID, participant); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel submission")
	}
	return nil
}

func (s *service) ExportCSV(ctx context.Context, organizerID, orderID uuid.UUID, w io.Writer) error {
	order, err := s.loadOwned(ctx, organizerID, orderID)
	if err != nil {
		return err
	}
	return ExportCSV(w, order)
}

func (s *service) ExportPDF(ctx context.Context, organizerID, orderID uuid.UUID, w io.Writer) error {
	order, err := s.loadOwned(ctx, organizerID, orderID)
	if err != nil {
		return err
	}
	return ExportPDF(w, order)
}

func (s *service) buildLine(ctx context.Context, order *models.Order, participant string, line SubmitLine) (*models.OrderItem, error) {
	if line.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	// The catalog lookup is scoped to the order's store: an unknown id, an
	// item from another store, and an inactive item all read as not found,
	// naming the offending item so the participant can fix their cart.
	item, err := s.items.FindByID(ctx, line.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("item %s not found", line.ItemID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	if item.StoreID != order.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("item %s not found", line.ItemID))
	}
	if !item.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("item %s (%s) is not available", line.ItemID, item.Name))
	}

	selections, err := resolveSelections(item, line.Selections)
	if err != nil {
		return nil, err
	}

	return &models.OrderItem{
		OrderID:         order.ID,
		ItemID:          item.ID,
		ParticipantName: participant,
		ItemName:        item.Name,
		UnitPrice:       item.Price,
		Quantity:        line.Quantity,
		Selections:      selections,
		Note:            line.Note,
		Subtotal:        item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}, nil
}

// resolveSelections checks the chosen options against the item's
// customization axes: required options must be present, every value must
// be one of the declared choices, unknown options are rejected.
func resolveSelections(item *models.Item, chosen map[string]string) (types.OptionSelections, error) {
	byName := make(map[string]models.CustomizationOption, len(item.Options))
	for _, opt := range item.Options {
		byName[opt.Name] = opt
	}

	for name := range chosen {
		if _, ok := byName[name]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown option %q for %s", name, item.Name))
		}
	}

	result := make(types.OptionSelections, len(chosen))
	for _, opt := range item.Options {
		value, ok := chosen[opt.Name]
		if !ok || value == "" {
			if opt.Required {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("option %q is required for %s", opt.Name, item.Name))
			}
			continue
		}
		if !opt.Choices.Contains(value) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%q is not a valid choice for option %q", value, opt.Name))
		}
		result[opt.Name] = value
	}
	return result, nil
}

func (s *service) acceptingSubmissions(order *models.Order) error {
	if order.Status != enums.OrderStatusOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer accepting submissions")
	}
	if !s.now().Before(order.Deadline) {
		return pkgerrors.New(pkgerrors.CodeExpired, "order deadline has passed")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, organizerID, orderID uuid.UUID) (*models.Order, error) {
	if organizerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.OrganizerID != organizerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another organizer")
	}
	return order, nil
}

func (s *service) loadByToken(ctx context.Context, token string) (*models.Order, error) {
	if !sharetoken.IsWellFormed(token) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.FindByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func organizerActor(userID uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   string(enums.UserRoleOrganizer),
	}
}
