package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/travelglobe/travelglobe-go/internal/crypto"
	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/repository"
)

type contextKey string

const userKey contextKey = "user"

// TokenVerifier validates a bearer token without touching storage.
type TokenVerifier interface {
	Verify(token string) (*crypto.Claims, error)
}

// UserLoader resolves a verified user ID to its record.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth returns middleware that rejects requests without a valid
// Bearer token for an existing user.
func RequireAuth(verifier TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, verifier, users)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present. Missing or
// invalid tokens proceed anonymously; storage failures do not.
func OptionalAuth(verifier TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, verifier, users)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), user))
			case errors.Is(err, errUnauthenticated):
			default:
				writeAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the user attached by RequireAuth or OptionalAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// WithUser attaches user to ctx.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

var errUnauthenticated = errors.New("unauthenticated")

// resolveUser performs at most one user lookup, and only for a token that
// verified.
func resolveUser(r *http.Request, verifier TokenVerifier, users UserLoader) (*model.User, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errUnauthenticated
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		slog.Debug("rejecting authorization header", "reason", "invalid format", "path", r.URL.Path)
		return nil, errUnauthenticated
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		slog.Debug("rejecting token", "reason", err, "path", r.URL.Path)
		return nil, errUnauthenticated
	}

	user, err := users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Debug("rejecting token", "reason", "user not found", "user_id", claims.UserID)
			return nil, errUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, repository.ErrUnavailable):
		slog.Error("auth user lookup failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "database not connected")
	default:
		slog.Error("auth user lookup failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
