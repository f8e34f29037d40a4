package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtogether/lunchbox-backend/internal/users"
	pkgAuth "github.com/lunchtogether/lunchbox-backend/pkg/auth"
	"github.com/lunchtogether/lunchbox-backend/pkg/config"
	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/security"
)

func testConfigs() (config.JWTConfig, config.PasswordConfig) {
	jwtCfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "lunchbox",
		ExpirationMinutes: 30,
	}
	passwordCfg := config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
	return jwtCfg, passwordCfg
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	_, passwordCfg := testConfigs()
	hash, err := security.HashPassword(password, passwordCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	jwtCfg, passwordCfg := testConfigs()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		JWTConfig:      jwtCfg,
		PasswordConfig: passwordCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestServiceLoginSuccess(t *testing.T) {
	password := "bento-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "organizer@example.com",
		PasswordHash: mustHashPassword(t, password),
		DisplayName:  "Organizer",
		Role:         enums.UserRoleOrganizer,
		IsActive:     true,
	}
	repo := &stubUserRepo{user: user}
	svc := buildTestService(t, repo)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Organizer@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	jwtCfg, _ := testConfigs()
	claims, err := pkgAuth.ParseAccessToken(jwtCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s got %s", user.ID, claims.UserID)
	}
	if claims.Role != enums.UserRoleOrganizer {
		t.Fatalf("expected organizer role claim, got %s", claims.Role)
	}
	if !repo.lastLoginSet {
		t.Fatal("expected last login update")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		DisplayName:  "User",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	svc := buildTestService(t, &stubUserRepo{user: user})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "secret-password"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: mustHashPassword(t, password),
		DisplayName:  "Gone",
		Role:         enums.UserRoleUser,
		IsActive:     false,
	}
	svc := buildTestService(t, &stubUserRepo{user: user})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceRegisterSuccess(t *testing.T) {
	repo := &stubUserRepo{}
	svc := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "New@Example.com",
		Password:    "long-enough-password",
		DisplayName: "New User",
		Organizer:   true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %s", resp.User.Email)
	}
	if resp.User.Role != enums.UserRoleOrganizer {
		t.Fatalf("expected organizer role, got %s", resp.User.Role)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	existing := &models.User{
		ID:    uuid.New(),
		Email: "taken@example.com",
	}
	svc := buildTestService(t, &stubUserRepo{user: existing})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "taken@example.com",
		Password:    "long-enough-password",
		DisplayName: "Other",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestServiceMeReturnsProfile(t *testing.T) {
	user := &models.User{
		ID:          uuid.New(),
		Email:       "user@example.com",
		DisplayName: "User",
		Role:        enums.UserRoleUser,
		IsActive:    true,
	}
	svc := buildTestService(t, &stubUserRepo{user: user})

	profile, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if profile.ID != user.ID || profile.Email != user.Email {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestServiceMeUnknownUser(t *testing.T) {
	svc := buildTestService(t, &stubUserRepo{})

	_, err := svc.Me(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

type stubUserRepo struct {
	user         *models.User
	lastLoginSet bool
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLoginSet = true
	return nil
}
