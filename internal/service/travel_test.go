package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelglobe/travelglobe-go/internal/model"
	"github.com/travelglobe/travelglobe-go/internal/repository"
)

type unavailableTravelStore struct{}

func (unavailableTravelStore) Apply(context.Context, string, string, model.TravelOp) (model.TravelState, error) {
	return model.TravelState{}, fmt.Errorf("apply: %w", repository.ErrUnavailable)
}

func (unavailableTravelStore) State(context.Context, string) (model.TravelState, error) {
	return model.TravelState{}, fmt.Errorf("state: %w", repository.ErrUnavailable)
}

func TestNormalizeCountryCode(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "fr", want: "FR"},
		{raw: " Jp ", want: "JP"},
		{raw: "ZZ", want: "ZZ"},
		{raw: "", wantErr: true},
		{raw: "F", wantErr: true},
		{raw: "FRA", wantErr: true},
		{raw: "F1", wantErr: true},
		{raw: "É1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeCountryCode(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCountryCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTravel_Scenario(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()
	const user = "u-1"

	state, err := svc.AddToWishlist(ctx, user, "jp")
	require.NoError(t, err)
	assert.Equal(t, []string{}, state.Visited)
	assert.Equal(t, []string{"JP"}, state.Wishlist)

	state, err = svc.MarkVisited(ctx, user, "JP")
	require.NoError(t, err)
	assert.Equal(t, []string{"JP"}, state.Visited)
	assert.Equal(t, []string{}, state.Wishlist)

	state, err = svc.AddToWishlist(ctx, user, "JP")
	require.NoError(t, err)
	assert.Equal(t, []string{}, state.Visited)
	assert.Equal(t, []string{"JP"}, state.Wishlist)

	state, err = svc.UnmarkVisited(ctx, user, "JP")
	require.NoError(t, err)
	assert.Equal(t, []string{"JP"}, state.Wishlist, "unmarking a wishlisted code leaves it alone")

	state, err = svc.RemoveFromWishlist(ctx, user, "JP")
	require.NoError(t, err)
	assert.Empty(t, state.Visited)
	assert.Empty(t, state.Wishlist)
}

func TestTravel_Idempotent(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()

	first, err := svc.MarkVisited(ctx, "u-1", "FR")
	require.NoError(t, err)
	second, err := svc.MarkVisited(ctx, "u-1", "fr")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	state, err := svc.RemoveFromWishlist(ctx, "u-1", "DE")
	require.NoError(t, err)
	assert.Equal(t, []string{"FR"}, state.Visited)
}

func TestTravel_UsersAreIsolated(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()

	_, err := svc.MarkVisited(ctx, "u-1", "FR")
	require.NoError(t, err)

	state, err := svc.State(ctx, "u-2")
	require.NoError(t, err)
	assert.Empty(t, state.Visited)
}

func TestTravel_InvalidCode(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()

	_, err := svc.MarkVisited(ctx, "u-1", "FRA")
	assert.ErrorIs(t, err, ErrInvalidCountryCode)

	_, err = svc.StatusOf(ctx, "u-1", "1")
	assert.ErrorIs(t, err, ErrInvalidCountryCode)
}

func TestTravel_StatusOf(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()

	_, err := svc.MarkVisited(ctx, "u-1", "FR")
	require.NoError(t, err)
	_, err = svc.AddToWishlist(ctx, "u-1", "JP")
	require.NoError(t, err)

	for code, want := range map[string]model.TravelStatus{
		"fr": model.StatusVisited,
		"JP": model.StatusWishlist,
		"DE": model.StatusNone,
	} {
		got, err := svc.StatusOf(ctx, "u-1", code)
		require.NoError(t, err)
		assert.Equal(t, want, got, code)
	}
}

func TestTravel_RandomSequencesKeepSetsDisjoint(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	codes := []string{"FR", "JP", "DE", "BR"}
	ops := []func(context.Context, string, string) (model.TravelState, error){
		svc.MarkVisited, svc.UnmarkVisited, svc.AddToWishlist, svc.RemoveFromWishlist,
	}

	for i := 0; i < 500; i++ {
		state, err := ops[rng.Intn(len(ops))](ctx, "u-1", codes[rng.Intn(len(codes))])
		require.NoError(t, err)
		assertDisjoint(t, state)
	}
}

func TestTravel_ConcurrentOpposingMutations(t *testing.T) {
	svc := NewTravelService(repository.NewMemoryStore(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.MarkVisited(ctx, "u-1", "FR")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.AddToWishlist(ctx, "u-1", "FR")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := svc.State(ctx, "u-1")
	require.NoError(t, err)
	assertDisjoint(t, state)
	assert.Len(t, append(state.Visited, state.Wishlist...), 1)
}

func TestTravel_StorageUnavailable(t *testing.T) {
	svc := NewTravelService(unavailableTravelStore{}, nil)
	ctx := context.Background()

	_, err := svc.MarkVisited(ctx, "u-1", "FR")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.State(ctx, "u-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestTravel_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewTravelService(repository.NewMemoryStore(), metrics)
	ctx := context.Background()

	_, err := svc.MarkVisited(ctx, "u-1", "FR")
	require.NoError(t, err)
	_, err = svc.MarkVisited(ctx, "u-1", "JP")
	require.NoError(t, err)
	_, err = svc.MarkVisited(ctx, "u-1", "bad code")
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.TravelUpdates.WithLabelValues("mark_visited")))
}

func assertDisjoint(t *testing.T, state model.TravelState) {
	t.Helper()
	seen := make(map[string]bool, len(state.Visited))
	for _, code := range state.Visited {
		seen[code] = true
	}
	for _, code := range state.Wishlist {
		assert.False(t, seen[code], "%s is both visited and wishlisted", code)
	}
}
