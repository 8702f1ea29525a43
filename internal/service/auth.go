package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/travelglobe/travelglobe-go/internal/crypto"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/repository"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailRequired       = errors.New("email is required")
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrStorageUnavailable  = errors.New("database not connected")
)

// UserStore is the user-record collaborator. Email uniqueness is enforced
// by the store, which reports violations as repository.ErrDuplicateEmail.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo    UserStore
	tokens  *crypto.TokenIssuer
	metrics *Metrics

	// dummy is verified against when the email is unknown, so both login
	// failure paths cost one key derivation.
	dummy crypto.Credential
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo UserStore, tokens *crypto.TokenIssuer, metrics *Metrics) (*AuthService, error) {
	dummy, err := crypto.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &AuthService{
		repo:    repo,
		tokens:  tokens,
		metrics: metrics,
		dummy:   dummy,
	}, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return model.AuthResponse{}, ErrWeakPassword
	}

	cred, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		ID:          uuid.NewString(),
		Email:       email,
		Salt:        cred.Salt,
		Hash:        cred.Hash,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, translateStoreError(err)
	}
	s.metrics.userRegistered()

	return s.authResponse(user)
}

// Login authenticates a user and returns an auth token. Unknown emails and
// wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return model.AuthResponse{}, ErrCredentialsRequired
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = crypto.VerifyPassword(req.Password, s.dummy.Salt, s.dummy.Hash)
			s.metrics.loginFailed()
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, translateStoreError(err)
	}

	match, err := crypto.VerifyPassword(req.Password, user.Salt, user.Hash)
	if err != nil {
		slog.Error("stored credential is malformed", "user_id", user.ID, "error", err)
		return model.AuthResponse{}, fmt.Errorf("verify credential: %w", err)
	}
	if !match {
		s.metrics.loginFailed()
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID string) (model.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, translateStoreError(err)
	}

	return user.ToResponse(), nil
}

func (s *AuthService) authResponse(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		User:  user.ToResponse(),
		Token: token,
	}, nil
}

// translateStoreError maps repository.ErrUnavailable to ErrStorageUnavailable.
func translateStoreError(err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}
