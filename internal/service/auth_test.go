package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelglobe/travelglobe-go/internal/crypto"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/repository"
)

func newTestAuthService(t *testing.T, store UserStore) (*AuthService, *crypto.TokenIssuer) {
	t.Helper()
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)
	svc, err := NewAuthService(store, tokens, nil)
	require.NoError(t, err)
	return svc, tokens
}

// unavailableUserStore fails every call the way a dropped database does.
type unavailableUserStore struct{}

func (unavailableUserStore) Create(context.Context, *model.User) error {
	return fmt.Errorf("insert user: %w", repository.ErrUnavailable)
}

func (unavailableUserStore) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, fmt.Errorf("get user: %w", repository.ErrUnavailable)
}

func (unavailableUserStore) GetByID(context.Context, string) (*model.User, error) {
	return nil, fmt.Errorf("get user: %w", repository.ErrUnavailable)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t, repository.NewMemoryStore())

	tests := []struct {
		name    string
		req     model.CreateUserRequest
		wantErr error
	}{
		{"empty email", model.CreateUserRequest{Email: "  ", Password: "secret1"}, ErrEmailRequired},
		{"empty password", model.CreateUserRequest{Email: "a@x.com"}, ErrWeakPassword},
		{"five characters", model.CreateUserRequest{Email: "a@x.com", Password: "12345"}, ErrWeakPassword},
		{"five multibyte characters", model.CreateUserRequest{Email: "a@x.com", Password: "ééééé"}, ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_Success(t *testing.T) {
	store := repository.NewMemoryStore()
	svc, tokens := newTestAuthService(t, store)

	resp, err := svc.Register(context.Background(), model.CreateUserRequest{
		Email:       "  A@X.com ",
		Password:    "secret1",
		DisplayName: " Ann ",
	})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.Equal(t, "Ann", resp.User.DisplayName)
	assert.NotEmpty(t, resp.User.ID)

	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)

	stored, err := store.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.Hash)
	assert.NotEmpty(t, stored.Salt)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, repository.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, model.CreateUserRequest{Email: "A@x.com", Password: "another1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, tokens := newTestAuthService(t, repository.NewMemoryStore())
	ctx := context.Background()

	registered, err := svc.Register(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("success with different casing", func(t *testing.T) {
		resp, err := svc.Login(ctx, model.LoginRequest{Email: "A@X.COM", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, resp.User.ID)

		claims, err := tokens.Verify(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email fails identically", func(t *testing.T) {
		_, err := svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com"})
		assert.ErrorIs(t, err, ErrCredentialsRequired)

		_, err = svc.Login(ctx, model.LoginRequest{Password: "secret1"})
		assert.ErrorIs(t, err, ErrCredentialsRequired)
	})
}

func TestLogin_MalformedStoredCredential(t *testing.T) {
	store := repository.NewMemoryStore()
	svc, _ := newTestAuthService(t, store)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &model.User{
		ID:    "u-1",
		Email: "a@x.com",
		Salt:  "00ff",
		Hash:  "not-hex",
	}))

	_, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
	assert.ErrorIs(t, err, crypto.ErrInvalidHashFormat)
}

func TestGetUser(t *testing.T) {
	svc, _ := newTestAuthService(t, repository.NewMemoryStore())
	ctx := context.Background()

	registered, err := svc.Register(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.GetUser(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuth_StorageUnavailable(t *testing.T) {
	svc, _ := newTestAuthService(t, unavailableUserStore{})
	ctx := context.Background()

	_, err := svc.Register(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.GetUser(ctx, "u-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestAuth_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	svc, err := NewAuthService(repository.NewMemoryStore(), crypto.NewTokenIssuer("test-secret", time.Hour), metrics)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Register(ctx, model.CreateUserRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UsersRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoginFailures))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com\t"))
	assert.Equal(t, "", NormalizeEmail("   "))
}
