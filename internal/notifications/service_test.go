package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/pagination"
)

type stubNotificationsRepo struct {
	prefs map[uuid.UUID]*models.NotificationPreference
	subs  []models.WebPushSubscription

	created []*models.Notification
	sentIDs []uuid.UUID
	failed  map[uuid.UUID]string

	markReadResult notificationMarkResult
	markAllCount   int64
	unreadCount    int64
}

func newStubNotificationsRepo() *stubNotificationsRepo {
	return &stubNotificationsRepo{
		prefs:  map[uuid.UUID]*models.NotificationPreference{},
		failed: map[uuid.UUID]string{},
	}
}

func (s *stubNotificationsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubNotificationsRepo) Create(_ context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	s.created = append(s.created, notification)
	return nil
}

func (s *stubNotificationsRepo) List(_ context.Context, _ listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	panic("not implemented")
}

func (s *stubNotificationsRepo) MarkRead(_ context.Context, _, _ uuid.UUID, _ time.Time) (notificationMarkResult, error) {
	return s.markReadResult, nil
}

func (s *stubNotificationsRepo) MarkAllRead(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
	return s.markAllCount, nil
}

func (s *stubNotificationsRepo) CountUnread(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.unreadCount, nil
}

func (s *stubNotificationsRepo) MarkSent(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubNotificationsRepo) MarkFailed(_ context.Context, id uuid.UUID, cause string) error {
	s.failed[id] = cause
	return nil
}

func (s *stubNotificationsRepo) GetPreference(_ context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	pref, ok := s.prefs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pref, nil
}

func (s *stubNotificationsRepo) SavePreference(_ context.Context, pref *models.NotificationPreference) error {
	s.prefs[pref.UserID] = pref
	return nil
}

func (s *stubNotificationsRepo) AddWebPushSubscription(_ context.Context, sub *models.WebPushSubscription) error {
	for i := range s.subs {
		if s.subs[i].Endpoint == sub.Endpoint {
			s.subs[i] = *sub
			return nil
		}
	}
	s.subs = append(s.subs, *sub)
	return nil
}

func (s *stubNotificationsRepo) DeleteWebPushSubscription(_ context.Context, userID uuid.UUID, endpoint string) (int64, error) {
	kept := s.subs[:0]
	var removed int64
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			removed++
			continue
		}
		kept = append(kept, sub)
	}
	s.subs = kept
	return removed, nil
}

func (s *stubNotificationsRepo) ListWebPushSubscriptions(_ context.Context, userID uuid.UUID) ([]models.WebPushSubscription, error) {
	var out []models.WebPushSubscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func assertErrorCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestGetPreferencesCreatesDefaults(t *testing.T) {
	repo := newStubNotificationsRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	userID := uuid.New()

	pref, err := svc.GetPreferences(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if pref.WebPushEnabled || pref.TelegramEnabled || pref.LineNotifyEnabled {
		t.Fatalf("expected all channels off by default, got %+v", pref)
	}
	if _, ok := repo.prefs[userID]; !ok {
		t.Fatal("expected a preference row to be created")
	}
}

func TestUpdatePreferencesRejectsUnlinkedTelegram(t *testing.T) {
	repo := newStubNotificationsRepo()
	svc, _ := NewService(repo)
	enabled := true

	_, err := svc.UpdatePreferences(context.Background(), uuid.New(), UpdatePreferenceInput{
		TelegramEnabled: &enabled,
	})
	assertErrorCode(t, err, pkgerrors.CodeValidation)
}

func TestLinkTelegramEnablesChannel(t *testing.T) {
	repo := newStubNotificationsRepo()
	svc, _ := NewService(repo)
	userID := uuid.New()

	pref, err := svc.LinkTelegram(context.Background(), userID, "123456789")
	if err != nil {
		t.Fatalf("LinkTelegram: %v", err)
	}
	if !pref.TelegramEnabled || !pref.TelegramLinked {
		t.Fatalf("expected telegram linked and enabled, got %+v", pref)
	}

	pref, err = svc.UnlinkTelegram(context.Background(), userID)
	if err != nil {
		t.Fatalf("UnlinkTelegram: %v", err)
	}
	if pref.TelegramEnabled || pref.TelegramLinked {
		t.Fatalf("expected telegram unlinked and disabled, got %+v", pref)
	}
}

func TestRegisterWebPushEnablesChannel(t *testing.T) {
	repo := newStubNotificationsRepo()
	svc, _ := NewService(repo)
	userID := uuid.New()

	err := svc.RegisterWebPush(context.Background(), userID, WebPushSubscriptionInput{
		Endpoint: "https://push.example.com/sub/abc",
		P256DH:   "p256dh-key",
		Auth:     "auth-secret",
	})
	if err != nil {
		t.Fatalf("RegisterWebPush: %v", err)
	}

	if len(repo.subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(repo.subs))
	}
	if pref := repo.prefs[userID]; pref == nil || !pref.WebPushEnabled {
		t.Fatal("expected web push to be enabled after registering")
	}
}

func TestUnregisterWebPushUnknownEndpoint(t *testing.T) {
	repo := newStubNotificationsRepo()
	svc, _ := NewService(repo)

	err := svc.UnregisterWebPush(context.Background(), uuid.New(), "https://push.example.com/gone")
	assertErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	repo := newStubNotificationsRepo()
	repo.markReadResult = notificationMarkResult{Found: false}
	svc, _ := NewService(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	assertErrorCode(t, err, pkgerrors.CodeNotFound)
}

func TestLinkLineNotifyRequiresToken(t *testing.T) {
	repo := newStubNotificationsRepo()
	svc, _ := NewService(repo)

	_, err := svc.LinkLineNotify(context.Background(), uuid.New(), "   ")
	assertErrorCode(t, err, pkgerrors.CodeValidation)
}
