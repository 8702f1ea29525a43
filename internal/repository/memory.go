package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/travelglobe/travelglobe-go/internal/model"
)

// MemoryStore keeps users and travel statuses in process memory. It serves
// STORAGE=memory deployments and tests, and honors the same contracts as
// the MySQL repositories: unique emails and atomic travel mutations.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	travel  map[string]map[string]model.TravelStatus
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		travel:  make(map[string]map[string]model.TravelStatus),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user id %s already exists", user.ID)
	}

	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := *s.users[id]
	return &user, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := *stored
	return &user, nil
}

// Delete removes a user and their travel statuses.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(s.byEmail, user.Email)
	delete(s.users, id)
	delete(s.travel, id)
	return nil
}

// Apply performs op for (userID, code) and returns the resulting snapshot.
// The write lock covers both the mutation and the snapshot.
func (s *MemoryStore) Apply(_ context.Context, userID, code string, op model.TravelOp) (model.TravelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := s.travel[userID]
	if statuses == nil {
		statuses = make(map[string]model.TravelStatus)
		s.travel[userID] = statuses
	}

	switch op {
	case model.OpMarkVisited:
		statuses[code] = model.StatusVisited
	case model.OpAddToWishlist:
		statuses[code] = model.StatusWishlist
	case model.OpUnmarkVisited:
		if statuses[code] == model.StatusVisited {
			delete(statuses, code)
		}
	case model.OpRemoveFromWishlist:
		if statuses[code] == model.StatusWishlist {
			delete(statuses, code)
		}
	default:
		return model.TravelState{}, fmt.Errorf("unknown travel operation %d", op)
	}

	return snapshotOf(statuses), nil
}

func (s *MemoryStore) State(_ context.Context, userID string) (model.TravelState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.travel[userID]), nil
}

func snapshotOf(statuses map[string]model.TravelStatus) model.TravelState {
	state := model.TravelState{Visited: []string{}, Wishlist: []string{}}
	for code, status := range statuses {
		switch status {
		case model.StatusVisited:
			state.Visited = append(state.Visited, code)
		case model.StatusWishlist:
			state.Wishlist = append(state.Wishlist, code)
		}
	}
	sort.Strings(state.Visited)
	sort.Strings(state.Wishlist)
	return state
}
