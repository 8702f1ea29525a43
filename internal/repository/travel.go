package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/travelglobe/travelglobe-go/internal/model"
)

// TravelRepository persists per-user country statuses. Each mutation is a
// single conditional statement, so concurrent requests cannot lose updates
// or leave a code in both sets.
type TravelRepository struct {
	db *sql.DB
}

// NewTravelRepository creates a new TravelRepository.
func NewTravelRepository(db *sql.DB) *TravelRepository {
	return &TravelRepository{db: db}
}

// setStatusQuery moves a pair into a status, replacing whatever status it held.
const setStatusQuery = `
	INSERT INTO user_countries (user_id, country_code, status)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE status = VALUES(status)`

// clearStatusQuery removes a pair only while it still holds the given status.
const clearStatusQuery = `
	DELETE FROM user_countries
	WHERE user_id = ? AND country_code = ? AND status = ?`

const snapshotQuery = `
	SELECT country_code, status FROM user_countries
	WHERE user_id = ? ORDER BY country_code`

// maxApplyAttempts bounds retries of transactions InnoDB aborted as
// deadlock victims.
const maxApplyAttempts = 3

// Apply performs op for (userID, code) and returns the resulting snapshot.
// Mutation and snapshot share one transaction.
func (r *TravelRepository) Apply(ctx context.Context, userID, code string, op model.TravelOp) (model.TravelState, error) {
	var (
		state model.TravelState
		err   error
	)
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		state, err = r.apply(ctx, userID, code, op)
		if err == nil || !isRetryableTxError(err) {
			break
		}
		slog.Debug("retrying travel update", "user_id", userID, "code", code, "attempt", attempt, "error", err)
	}
	return state, err
}

func (r *TravelRepository) apply(ctx context.Context, userID, code string, op model.TravelOp) (model.TravelState, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TravelState{}, translateError(err)
	}
	defer tx.Rollback()

	switch op {
	case model.OpMarkVisited:
		_, err = tx.ExecContext(ctx, setStatusQuery, userID, code, string(model.StatusVisited))
	case model.OpAddToWishlist:
		_, err = tx.ExecContext(ctx, setStatusQuery, userID, code, string(model.StatusWishlist))
	case model.OpUnmarkVisited:
		_, err = tx.ExecContext(ctx, clearStatusQuery, userID, code, string(model.StatusVisited))
	case model.OpRemoveFromWishlist:
		_, err = tx.ExecContext(ctx, clearStatusQuery, userID, code, string(model.StatusWishlist))
	default:
		return model.TravelState{}, fmt.Errorf("unknown travel operation %d", op)
	}
	if err != nil {
		return model.TravelState{}, translateError(err)
	}

	state, err := snapshot(ctx, tx, userID)
	if err != nil {
		return model.TravelState{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.TravelState{}, translateError(err)
	}

	return state, nil
}

// State returns the user's current visited and wishlist sets.
func (r *TravelRepository) State(ctx context.Context, userID string) (model.TravelState, error) {
	return snapshot(ctx, r.db, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func snapshot(ctx context.Context, q querier, userID string) (model.TravelState, error) {
	rows, err := q.QueryContext(ctx, snapshotQuery, userID)
	if err != nil {
		return model.TravelState{}, translateError(err)
	}
	defer rows.Close()

	state := model.TravelState{Visited: []string{}, Wishlist: []string{}}
	for rows.Next() {
		var code, status string
		if err := rows.Scan(&code, &status); err != nil {
			return model.TravelState{}, err
		}
		switch model.TravelStatus(status) {
		case model.StatusVisited:
			state.Visited = append(state.Visited, code)
		case model.StatusWishlist:
			state.Wishlist = append(state.Wishlist, code)
		}
	}

	if err := rows.Err(); err != nil {
		return model.TravelState{}, translateError(err)
	}
	return state, nil
}
