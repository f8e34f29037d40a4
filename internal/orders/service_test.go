package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/outbox"
	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

type stubOrdersRepo struct {
	order        *models.Order
	listed       []models.Order
	replaced     []models.OrderItem
	replacedFor  string
	deletedLines int64
	deletedOrder bool
	updated      *models.Order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.order = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByShareToken(ctx context.Context, token string) (*models.Order, error) {
	if s.order == nil || s.order.ShareToken != token {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, status *enums.OrderStatus, limit int) ([]models.Order, error) {
	return s.listed, nil
}

func (s *stubOrdersRepo) ListHistory(ctx context.Context, organizerID uuid.UUID, filters HistoryFilters, limit int) ([]models.Order, error) {
	return s.listed, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.updated = order
	return order, nil
}

func (s *stubOrdersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deletedOrder = true
	return nil
}

func (s *stubOrdersRepo) FindOpenExpired(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindOpenInReminderWindow(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) MarkClosed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ReplaceParticipantItems(ctx context.Context, orderID uuid.UUID, participant string, lines []models.OrderItem) error {
	s.replaced = lines
	s.replacedFor = participant
	return nil
}

func (s *stubOrdersRepo) DeleteParticipantItems(ctx context.Context, orderID uuid.UUID, participant string) (int64, error) {
	return s.deletedLines, nil
}

type stubItemReader struct {
	items map[uuid.UUID]*models.Item
}

func (s *stubItemReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubItemReader) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Item, error) {
	var result []models.Item
	for _, item := range s.items {
		if item.StoreID == storeID {
			result = append(result, *item)
		}
	}
	return result, nil
}

type stubStoreReader struct {
	store *models.Store
}

func (s *stubStoreReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if s.store == nil || s.store.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.store, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutboxPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return s.Emit(ctx, tx, event)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc    Service
	repo   *stubOrdersRepo
	outbox *stubOutboxPublisher
	now    time.Time
}

func newFixture(t *testing.T, repo *stubOrdersRepo, itemsReader *stubItemReader, storesReader *stubStoreReader) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	publisher := &stubOutboxPublisher{}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Items:    itemsReader,
		Stores:   storesReader,
		Tx:       stubTxRunner{},
		Outbox:   publisher,
		NewToken: func() (string, error) { return testToken, nil },
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, outbox: publisher, now: now}
}

const testToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func buildStore() *models.Store {
	return &models.Store{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Name:     "Bento Corner",
		IsActive: true,
	}
}

func buildItem(storeID uuid.UUID, name string, price string, options ...models.CustomizationOption) *models.Item {
	value, _ := decimal.NewFromString(price)
	return &models.Item{
		ID:          uuid.New(),
		StoreID:     storeID,
		Name:        name,
		Price:       value,
		IsAvailable: true,
		Options:     options,
	}
}

func buildOpenOrder(store *models.Store, deadline time.Time) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		OrganizerID:     uuid.New(),
		StoreID:         store.ID,
		Title:           "Friday lunch",
		Status:          enums.OrderStatusOpen,
		Deadline:        deadline,
		ReminderMinutes: 30,
		ShareToken:      testToken,
		Store:           store,
	}
}

func TestCreateOrderEmitsStartedEvent(t *testing.T) {
	store := buildStore()
	repo := &stubOrdersRepo{}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	organizerID := store.OwnerID
	dto, err := fx.svc.Create(context.Background(), CreateOrderInput{
		OrganizerID: organizerID,
		StoreID:     store.ID,
		Title:       "Friday lunch",
		Deadline:    fx.now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if dto.Status != enums.OrderStatusOpen {
		t.Fatalf("expected open status, got %s", dto.Status)
	}
	if dto.ShareToken != testToken {
		t.Fatalf("expected share token %s, got %s", testToken, dto.ShareToken)
	}
	if dto.ReminderMinutes != fallbackReminderMinutes {
		t.Fatalf("expected default reminder minutes, got %d", dto.ReminderMinutes)
	}
	if len(fx.outbox.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(fx.outbox.events))
	}
	event := fx.outbox.events[0]
	if event.EventType != enums.EventOrderStarted {
		t.Fatalf("expected order.started event, got %s", event.EventType)
	}
	if event.AggregateID != dto.ID {
		t.Fatalf("expected aggregate id %s, got %s", dto.ID, event.AggregateID)
	}
}

func TestCreateOrderRejectsPastDeadline(t *testing.T) {
	store := buildStore()
	fx := newFixture(t, &stubOrdersRepo{}, &stubItemReader{}, &stubStoreReader{store: store})

	_, err := fx.svc.Create(context.Background(), CreateOrderInput{
		OrganizerID: uuid.New(),
		StoreID:     store.ID,
		Title:       "Too late",
		Deadline:    fx.now.Add(-time.Minute),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOrderRejectsForeignStore(t *testing.T) {
	store := buildStore()
	fx := newFixture(t, &stubOrdersRepo{}, &stubItemReader{}, &stubStoreReader{store: store})

	_, err := fx.svc.Create(context.Background(), CreateOrderInput{
		OrganizerID: uuid.New(),
		StoreID:     store.ID,
		Title:       "Someone else's store",
		Deadline:    fx.now.Add(2 * time.Hour),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateOrderRejectsInactiveStore(t *testing.T) {
	store := buildStore()
	store.IsActive = false
	fx := newFixture(t, &stubOrdersRepo{}, &stubItemReader{}, &stubStoreReader{store: store})

	_, err := fx.svc.Create(context.Background(), CreateOrderInput{
		OrganizerID: store.OwnerID,
		StoreID:     store.ID,
		Title:       "Friday lunch",
		Deadline:    fx.now.Add(time.Hour),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryRejectsInvertedRange(t *testing.T) {
	fx := newFixture(t, &stubOrdersRepo{}, &stubItemReader{}, &stubStoreReader{})

	from := fx.now
	to := fx.now.Add(-24 * time.Hour)
	_, err := fx.svc.History(context.Background(), uuid.New(), HistoryFilters{From: &from, To: &to}, 0)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryReturnsFinishedOrders(t *testing.T) {
	store := buildStore()
	order := buildOpenOrder(store, time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC))
	order.Status = enums.OrderStatusCompleted
	repo := &stubOrdersRepo{listed: []models.Order{*order}}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	list, err := fx.svc.History(context.Background(), order.OrganizerID, HistoryFilters{StoreName: "bento"}, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one order, got %d", len(list))
	}
	if list[0].Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed order, got %s", list[0].Status)
	}
}

func TestSubmitReplacesPreviousLines(t *testing.T) {
	store := buildStore()
	item := buildItem(store.ID, "Chicken Bento", "8.50", models.CustomizationOption{
		Name:     "Size",
		Choices:  types.StringList{"Regular", "Large"},
		Required: true,
	})
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	lines, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines: []SubmitLine{{
			ItemID:     item.ID,
			Quantity:   2,
			Selections: map[string]string{"Size": "Large"},
		}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Subtotal != "17.00" {
		t.Fatalf("expected subtotal 17.00, got %s", lines[0].Subtotal)
	}
	if repo.replacedFor != "Alice" {
		t.Fatalf("expected replace for Alice, got %q", repo.replacedFor)
	}
	if repo.replaced[0].ItemName != "Chicken Bento" {
		t.Fatalf("expected snapshotted item name, got %q", repo.replaced[0].ItemName)
	}
}

func TestSubmitRejectsMissingRequiredOption(t *testing.T) {
	store := buildStore()
	item := buildItem(store.ID, "Chicken Bento", "8.50", models.CustomizationOption{
		Name:     "Size",
		Choices:  types.StringList{"Regular", "Large"},
		Required: true,
	})
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines:           []SubmitLine{{ItemID: item.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitRejectsInvalidChoice(t *testing.T) {
	store := buildStore()
	item := buildItem(store.ID, "Chicken Bento", "8.50", models.CustomizationOption{
		Name:    "Spice",
		Choices: types.StringList{"Mild", "Hot"},
	})
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines: []SubmitLine{{
			ItemID:     item.ID,
			Quantity:   1,
			Selections: map[string]string{"Spice": "Nuclear"},
		}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitRejectsPastDeadline(t *testing.T) {
	store := buildStore()
	item := buildItem(store.ID, "Chicken Bento", "8.50")
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines:           []SubmitLine{{ItemID: item.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeExpired {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestSubmitRejectsClosedOrder(t *testing.T) {
	store := buildStore()
	item := buildItem(store.ID, "Chicken Bento", "8.50")
	order := buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	order.Status = enums.OrderStatusClosed
	repo := &stubOrdersRepo{order: order}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines:           []SubmitLine{{ItemID: item.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}

func TestSubmitRejectsItemFromOtherStore(t *testing.T) {
	store := buildStore()
	other := buildStore()
	item := buildItem(other.ID, "Foreign Bento", "9.00")
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines:           []SubmitLine{{ItemID: item.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !strings.Contains(typed.Error(), item.ID.String()) {
		t.Fatalf("expected error to name item %s, got %q", item.ID, typed.Error())
	}
}

func TestSubmitRejectsUnknownItemNamingID(t *testing.T) {
	store := buildStore()
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	missing := uuid.New()
	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines:           []SubmitLine{{ItemID: missing, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !strings.Contains(typed.Error(), missing.String()) {
		t.Fatalf("expected error to name item %s, got %q", missing, typed.Error())
	}
}

func TestSubmitRejectsUnavailableItem(t *testing.T) {
	store := buildStore()
	item := buildItem(store.ID, "Sold Out Bento", "8.00")
	item.IsAvailable = false
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{item.ID: item}}, &stubStoreReader{store: store})

	_, err := fx.svc.Submit(context.Background(), testToken, SubmitInput{
		ParticipantName: "Alice",
		Lines:           []SubmitLine{{ItemID: item.ID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	if !strings.Contains(typed.Error(), item.ID.String()) {
		t.Fatalf("expected error to name item %s, got %q", item.ID, typed.Error())
	}
}

func TestUpdateCompletedTransitionEmitsSummaryEvent(t *testing.T) {
	store := buildStore()
	order := buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	order.Items = []models.OrderItem{{
		ParticipantName: "Alice",
		ItemName:        "Chicken Bento",
		UnitPrice:       decimal.RequireFromString("8.50"),
		Quantity:        2,
		Subtotal:        decimal.RequireFromString("17.00"),
	}}
	repo := &stubOrdersRepo{order: order}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	target := enums.OrderStatusCompleted
	dto, err := fx.svc.Update(context.Background(), UpdateOrderInput{
		OrganizerID: order.OrganizerID,
		OrderID:     order.ID,
		Status:      &target,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed status, got %s", dto.Status)
	}
	if dto.ClosedAt == nil || dto.CompletedAt == nil {
		t.Fatal("expected closed and completed timestamps")
	}
	if len(fx.outbox.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(fx.outbox.events))
	}
	if fx.outbox.events[0].EventType != enums.EventOrderSummaryReady {
		t.Fatalf("expected summary ready event, got %s", fx.outbox.events[0].EventType)
	}
	payload, ok := fx.outbox.events[0].Data.(OrderSummaryReadyEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", fx.outbox.events[0].Data)
	}
	if payload.TotalAmount != "17.00" {
		t.Fatalf("expected total amount 17.00, got %s", payload.TotalAmount)
	}
}

func TestUpdateRejectsBackwardTransition(t *testing.T) {
	store := buildStore()
	order := buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	order.Status = enums.OrderStatusCompleted
	repo := &stubOrdersRepo{order: order}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	target := enums.OrderStatusOpen
	_, err := fx.svc.Update(context.Background(), UpdateOrderInput{
		OrganizerID: order.OrganizerID,
		OrderID:     order.ID,
		Status:      &target,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}

func TestUpdateRejectsEditingClosedOrder(t *testing.T) {
	store := buildStore()
	order := buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	order.Status = enums.OrderStatusClosed
	repo := &stubOrdersRepo{order: order}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	title := "New title"
	_, err := fx.svc.Update(context.Background(), UpdateOrderInput{
		OrganizerID: order.OrganizerID,
		OrderID:     order.ID,
		Title:       &title,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}

func TestUpdateRejectsForeignOrder(t *testing.T) {
	store := buildStore()
	order := buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	repo := &stubOrdersRepo{order: order}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	title := "Hijacked"
	_, err := fx.svc.Update(context.Background(), UpdateOrderInput{
		OrganizerID: uuid.New(),
		OrderID:     order.ID,
		Title:       &title,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestGetByShareTokenHidesTokenAndFiltersMenu(t *testing.T) {
	store := buildStore()
	available := buildItem(store.ID, "Chicken Bento", "8.50")
	hidden := buildItem(store.ID, "Sold Out Bento", "7.00")
	hidden.IsAvailable = false
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{items: map[uuid.UUID]*models.Item{
		available.ID: available,
		hidden.ID:    hidden,
	}}, &stubStoreReader{store: store})

	view, err := fx.svc.GetByShareToken(context.Background(), testToken)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if view.Order.ShareToken != "" {
		t.Fatal("expected share token hidden in public view")
	}
	if len(view.Menu) != 1 || view.Menu[0].Name != "Chicken Bento" {
		t.Fatalf("expected only available items in menu, got %+v", view.Menu)
	}
}

func TestGetByShareTokenRejectsMalformedToken(t *testing.T) {
	store := buildStore()
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	_, err := fx.svc.GetByShareToken(context.Background(), "not-a-token")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCancelSubmissionWithoutLines(t *testing.T) {
	store := buildStore()
	repo := &stubOrdersRepo{order: buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	if err := fx.svc.CancelSubmission(context.Background(), testToken, "Nobody"); err != nil {
		t.Fatalf("expected no-op cancel to succeed, got %v", err)
	}
}

func TestRegenerateTokenRejectsCompletedOrder(t *testing.T) {
	store := buildStore()
	order := buildOpenOrder(store, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	order.Status = enums.OrderStatusCompleted
	repo := &stubOrdersRepo{order: order}
	fx := newFixture(t, repo, &stubItemReader{}, &stubStoreReader{store: store})

	_, err := fx.svc.RegenerateToken(context.Background(), order.OrganizerID, order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict error, got %v", err)
	}
}
