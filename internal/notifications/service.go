package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/pagination"
)

// Service defines notification list/read and channel preference operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, input UpdatePreferenceInput) (*PreferenceDTO, error)
	RegisterWebPush(ctx context.Context, userID uuid.UUID, input WebPushSubscriptionInput) error
	UnregisterWebPush(ctx context.Context, userID uuid.UUID, endpoint string) error
	LinkTelegram(ctx context.Context, userID uuid.UUID, chatID string) (*PreferenceDTO, error)
	UnlinkTelegram(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error)
	LinkLineNotify(ctx context.Context, userID uuid.UUID, accessToken string) (*PreferenceDTO, error)
	UnlinkLineNotify(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) GetPreferences(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error) {
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	return preferenceFromModel(pref), nil
}

func (s *service) UpdatePreferences(ctx context.Context, userID uuid.UUID, input UpdatePreferenceInput) (*PreferenceDTO, error) {
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.WebPushEnabled != nil {
		pref.WebPushEnabled = *input.WebPushEnabled
	}
	if input.TelegramEnabled != nil {
		if *input.TelegramEnabled && pref.TelegramChatID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "link a telegram chat before enabling it")
		}
		pref.TelegramEnabled = *input.TelegramEnabled
	}
	if input.LineNotifyEnabled != nil {
		if *input.LineNotifyEnabled && pref.LineNotifyToken == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "link line notify before enabling it")
		}
		pref.LineNotifyEnabled = *input.LineNotifyEnabled
	}

	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	return preferenceFromModel(pref), nil
}

func (s *service) RegisterWebPush(ctx context.Context, userID uuid.UUID, input WebPushSubscriptionInput) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" || input.P256DH == "" || input.Auth == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "endpoint and keys are required")
	}

	if err := s.repo.AddWebPushSubscription(ctx, &models.WebPushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256DH:   input.P256DH,
		Auth:     input.Auth,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store push subscription")
	}

	// Registering a browser implies the user wants pushes.
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return err
	}
	if !pref.WebPushEnabled {
		pref.WebPushEnabled = true
		if err := s.repo.SavePreference(ctx, pref); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
		}
	}
	return nil
}

func (s *service) UnregisterWebPush(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if endpoint == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "endpoint required")
	}
	removed, err := s.repo.DeleteWebPushSubscription(ctx, userID, endpoint)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete push subscription")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return nil
}

func (s *service) LinkTelegram(ctx context.Context, userID uuid.UUID, chatID string) (*PreferenceDTO, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref.TelegramChatID = &chatID
	pref.TelegramEnabled = true
	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	return preferenceFromModel(pref), nil
}

func (s *service) UnlinkTelegram(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error) {
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref.TelegramChatID = nil
	pref.TelegramEnabled = false
	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	return preferenceFromModel(pref), nil
}

func (s *service) LinkLineNotify(ctx context.Context, userID uuid.UUID, accessToken string) (*PreferenceDTO, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token required")
	}
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref.LineNotifyToken = &accessToken
	pref.LineNotifyEnabled = true
	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	return preferenceFromModel(pref), nil
}

func (s *service) UnlinkLineNotify(ctx context.Context, userID uuid.UUID) (*PreferenceDTO, error) {
	pref, err := s.loadOrCreatePreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref.LineNotifyToken = nil
	pref.LineNotifyEnabled = false
	if err := s.repo.SavePreference(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	return preferenceFromModel(pref), nil
}

func (s *service) loadOrCreatePreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	pref, err := s.repo.GetPreference(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}

	created := &models.NotificationPreference{UserID: userID}
	if err := s.repo.SavePreference(ctx, created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create preferences")
	}
	return created, nil
}
