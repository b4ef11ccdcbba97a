package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/civicflow/api/internal/auth"
	"github.com/civicflow/api/internal/identity"
)

type stubUsers struct {
	byID map[uuid.UUID]*identity.User
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (s *stubUsers) GetUserByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return u, nil
}

type stubRedis struct {
	store map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{store: make(map[string]string)}
}

func (s *stubRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	s.store[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	val, ok := s.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (s *stubRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func newTestAuthService(t *testing.T) (*AuthService, *identity.User, *stubRedis) {
	t.Helper()

	hash, err := auth.Hash("supersecret")
	if err != nil {
		t.Fatalf("Hash() = %v", err)
	}

	user := &identity.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         identity.RoleResident,
	}

	repo := &stubUsers{byID: map[uuid.UUID]*identity.User{user.ID: user}}
	redisStub := newStubRedis()
	jwtMgr := auth.NewJWTManager("0123456789abcdef0123456789abcdef", 15*time.Minute)

	return NewAuthService(repo, redisStub, jwtMgr, time.Hour), user, redisStub
}

func TestLogin(t *testing.T) {
	svc, user, redisStub := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login() = %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("missing tokens")
	}
	if result.User.ID != user.ID {
		t.Fatal("wrong user returned")
	}

	// The refresh token is stored hashed, never raw.
	key := auth.RefreshRedisKey(auth.HashRefreshToken(result.RefreshToken))
	if redisStub.store[key] != user.ID.String() {
		t.Fatal("refresh token not stored under its hash")
	}

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAndValidate() = %v", err)
	}
	if claims.Subject != user.ID.String() || claims.Role != identity.RoleResident {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "alice@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login() = %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() = %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// Consumed token must not be replayable.
	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("replayed refresh = %v, want ErrRefreshInvalid", err)
	}

	if _, err := svc.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("rotated token refresh = %v", err)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, "never-issued"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("Refresh() = %v, want ErrRefreshInvalid", err)
	}
	if _, err := svc.Refresh(ctx, "  "); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("Refresh(blank) = %v, want ErrRefreshInvalid", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, redisStub := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "alice@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login() = %v", err)
	}

	if err := svc.Logout(ctx, result.RefreshToken); err != nil {
		t.Fatalf("Logout() = %v", err)
	}
	if len(redisStub.store) != 0 {
		t.Fatal("refresh token still stored after logout")
	}
	if _, err := svc.Refresh(ctx, result.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh after logout = %v, want ErrRefreshInvalid", err)
	}
}
