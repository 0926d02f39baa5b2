package repository

import (
	"context"
	"database/sql"
)

// PingRepository stores reviewer opt-ins for new-ticket notification pings.
type PingRepository interface {
	Subscribe(ctx context.Context, userID int64) error
	Unsubscribe(ctx context.Context, userID int64) error
	ListSubscribers(ctx context.Context) ([]int64, error)
}

type pingRepository struct {
	db *sql.DB
}

// NewPingRepository instantiates repository.
func NewPingRepository(db *sql.DB) PingRepository {
	return &pingRepository{db: db}
}

// Subscribe opts the identity in; repeat calls are no-ops.
func (r *pingRepository) Subscribe(ctx context.Context, userID int64) error {
	const query = `INSERT OR IGNORE INTO ping_subscribers (user_id) VALUES (?)`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// Unsubscribe opts the identity out; repeat calls are no-ops.
func (r *pingRepository) Unsubscribe(ctx context.Context, userID int64) error {
	const query = `DELETE FROM ping_subscribers WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *pingRepository) ListSubscribers(ctx context.Context) ([]int64, error) {
	const query = `SELECT user_id FROM ping_subscribers ORDER BY user_id`
	return queryIDs(ctx, r.db, query)
}
