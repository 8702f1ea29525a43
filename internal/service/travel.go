package service

import (
	"context"
	"errors"
	"strings"

	"github.com/travelglobe/travelglobe-go/internal/model"
)

var (
	ErrInvalidCountryCode = errors.New("invalid ISO-2 code")
)

// TravelStore persists visited/wishlist statuses. Apply must perform the
// mutation and the snapshot read as one atomic unit.
type TravelStore interface {
	Apply(ctx context.Context, userID, code string, op model.TravelOp) (model.TravelState, error)
	State(ctx context.Context, userID string) (model.TravelState, error)
}

// TravelService maintains each user's visited and wishlist sets. A country
// is in at most one of them; every mutation is idempotent.
type TravelService struct {
	store   TravelStore
	metrics *Metrics
}

// NewTravelService creates a new TravelService.
func NewTravelService(store TravelStore, metrics *Metrics) *TravelService {
	return &TravelService{store: store, metrics: metrics}
}

// NormalizeCountryCode uppercases raw and checks it is two ASCII letters.
// Well-formed codes are accepted whether or not such a country exists.
func NormalizeCountryCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || !isUpperASCII(code[0]) || !isUpperASCII(code[1]) {
		return "", ErrInvalidCountryCode
	}
	return code, nil
}

func isUpperASCII(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// MarkVisited moves code into the visited set, removing it from the wishlist.
func (s *TravelService) MarkVisited(ctx context.Context, userID, code string) (model.TravelState, error) {
	return s.apply(ctx, userID, code, model.OpMarkVisited)
}

// UnmarkVisited removes code from the visited set.
func (s *TravelService) UnmarkVisited(ctx context.Context, userID, code string) (model.TravelState, error) {
	return s.apply(ctx, userID, code, model.OpUnmarkVisited)
}

// AddToWishlist moves code into the wishlist, removing it from visited.
func (s *TravelService) AddToWishlist(ctx context.Context, userID, code string) (model.TravelState, error) {
	return s.apply(ctx, userID, code, model.OpAddToWishlist)
}

// RemoveFromWishlist removes code from the wishlist.
func (s *TravelService) RemoveFromWishlist(ctx context.Context, userID, code string) (model.TravelState, error) {
	return s.apply(ctx, userID, code, model.OpRemoveFromWishlist)
}

// State returns a consistent snapshot of both sets.
func (s *TravelService) State(ctx context.Context, userID string) (model.TravelState, error) {
	state, err := s.store.State(ctx, userID)
	if err != nil {
		return model.TravelState{}, translateStoreError(err)
	}
	return state, nil
}

// StatusOf reports the user's status for a single country.
func (s *TravelService) StatusOf(ctx context.Context, userID, rawCode string) (model.TravelStatus, error) {
	code, err := NormalizeCountryCode(rawCode)
	if err != nil {
		return "", err
	}
	state, err := s.State(ctx, userID)
	if err != nil {
		return "", err
	}
	return state.StatusOf(code), nil
}

func (s *TravelService) apply(ctx context.Context, userID, rawCode string, op model.TravelOp) (model.TravelState, error) {
	code, err := NormalizeCountryCode(rawCode)
	if err != nil {
		return model.TravelState{}, err
	}

	state, err := s.store.Apply(ctx, userID, code, op)
	if err != nil {
		return model.TravelState{}, translateStoreError(err)
	}
	s.metrics.travelUpdated(op.String())

	return state, nil
}
