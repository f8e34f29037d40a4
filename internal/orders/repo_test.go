package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stores := `
CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  organizer_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  title TEXT NOT NULL,
  note TEXT,
  status TEXT NOT NULL DEFAULT 'open',
  deadline DATETIME NOT NULL,
  reminder_minutes INTEGER NOT NULL DEFAULT 30,
  share_token TEXT NOT NULL UNIQUE,
  closed_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  participant_name TEXT NOT NULL,
  item_name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  selections TEXT NOT NULL DEFAULT '{}',
  note TEXT,
  subtotal NUMERIC NOT NULL,
  created_at DATETIME
);`

	for _, ddl := range []string{stores, orders, orderItems} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedStore(t *testing.T, db *gorm.DB) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Name:     "Bento Corner",
		IsActive: true,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

func seedOrder(t *testing.T, db *gorm.DB, store *models.Store, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		OrganizerID:     uuid.New(),
		StoreID:         store.ID,
		Title:           "Friday lunch",
		Status:          enums.OrderStatusOpen,
		Deadline:        time.Now().UTC().Add(2 * time.Hour),
		ReminderMinutes: 30,
		ShareToken:      uuid.NewString() + uuid.NewString(),
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedLine(orderID uuid.UUID, participant, itemName, price string, qty int) models.OrderItem {
	unit := decimal.RequireFromString(price)
	return models.OrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		ItemID:          uuid.New(),
		ParticipantName: participant,
		ItemName:        itemName,
		UnitPrice:       unit,
		Quantity:        qty,
		Selections:      types.OptionSelections{},
		Subtotal:        unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestRepositoryFindByShareToken(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	order := seedOrder(t, db, store, nil)

	found, err := repo.FindByShareToken(context.Background(), order.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.NotNil(t, found.Store)
	assert.Equal(t, store.Name, found.Store.Name)

	_, err = repo.FindByShareToken(context.Background(), "missing-token")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryReplaceParticipantItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	order := seedOrder(t, db, store, nil)

	first := []models.OrderItem{
		seedLine(order.ID, "Alice", "Chicken Bento", "8.50", 1),
		seedLine(order.ID, "Alice", "Miso Soup", "2.00", 1),
	}
	require.NoError(t, repo.ReplaceParticipantItems(context.Background(), order.ID, "Alice", first))

	// Resubmitting wipes the earlier lines instead of appending.
	second := []models.OrderItem{
		seedLine(order.ID, "Alice", "Veggie Bento", "7.00", 2),
	}
	require.NoError(t, repo.ReplaceParticipantItems(context.Background(), order.ID, "Alice", second))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Veggie Bento", found.Items[0].ItemName)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.Equal(t, "14.00", found.Items[0].Subtotal.StringFixed(2))
}

func TestRepositoryReplaceKeepsOtherParticipants(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	order := seedOrder(t, db, store, nil)

	require.NoError(t, repo.ReplaceParticipantItems(context.Background(), order.ID, "Alice",
		[]models.OrderItem{seedLine(order.ID, "Alice", "Chicken Bento", "8.50", 1)}))
	require.NoError(t, repo.ReplaceParticipantItems(context.Background(), order.ID, "Bob",
		[]models.OrderItem{seedLine(order.ID, "Bob", "Miso Soup", "2.00", 3)}))

	require.NoError(t, repo.ReplaceParticipantItems(context.Background(), order.ID, "Alice",
		[]models.OrderItem{seedLine(order.ID, "Alice", "Veggie Bento", "7.00", 1)}))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)

	names := []string{found.Items[0].ParticipantName, found.Items[1].ParticipantName}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
}

func TestRepositoryDeleteParticipantItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	order := seedOrder(t, db, store, nil)

	require.NoError(t, repo.ReplaceParticipantItems(context.Background(), order.ID, "Alice",
		[]models.OrderItem{seedLine(order.ID, "Alice", "Chicken Bento", "8.50", 1)}))

	removed, err := repo.DeleteParticipantItems(context.Background(), order.ID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteParticipantItems(context.Background(), order.ID, "Alice")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRepositoryFindOpenExpired(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	now := time.Now().UTC()

	expired := seedOrder(t, db, store, func(o *models.Order) {
		o.Deadline = now.Add(-time.Hour)
	})
	seedOrder(t, db, store, func(o *models.Order) {
		o.Deadline = now.Add(time.Hour)
	})
	seedOrder(t, db, store, func(o *models.Order) {
		o.Deadline = now.Add(-2 * time.Hour)
		o.Status = enums.OrderStatusClosed
		o.ClosedAt = &now
	})

	found, err := repo.FindOpenExpired(context.Background(), now, 10)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, o := range found {
		ids = append(ids, o.ID)
	}
	assert.Contains(t, ids, expired.ID)
	for _, o := range found {
		assert.Equal(t, enums.OrderStatusOpen, o.Status)
		assert.False(t, o.Deadline.After(now))
	}
}

func TestRepositoryFindOpenInReminderWindow(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	now := time.Now().UTC()

	inWindow := seedOrder(t, db, store, func(o *models.Order) {
		o.Deadline = now.Add(20 * time.Minute)
		o.ReminderMinutes = 30
	})
	tooEarly := seedOrder(t, db, store, func(o *models.Order) {
		o.Deadline = now.Add(90 * time.Minute)
		o.ReminderMinutes = 30
	})

	found, err := repo.FindOpenInReminderWindow(context.Background(), now, 50)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, o := range found {
		ids = append(ids, o.ID)
	}
	assert.Contains(t, ids, inWindow.ID)
	assert.NotContains(t, ids, tooEarly.ID)
}

func TestRepositoryMarkClosed(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	store := seedStore(t, db)
	order := seedOrder(t, db, store, nil)
	now := time.Now().UTC()

	changed, err := repo.MarkClosed(context.Background(), order.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	// A second sweep finds nothing to do.
	changed, err = repo.MarkClosed(context.Background(), order.ID, now)
	require.NoError(t, err)
	assert.Zero(t, changed)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusClosed, found.Status)
	require.NotNil(t, found.ClosedAt)
}
