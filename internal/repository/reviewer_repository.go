package repository

import (
	"context"
	"database/sql"
)

// ReviewerRepository stores the runtime-managed reviewer identity set.
type ReviewerRepository interface {
	IsReviewer(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, userID int64) error
	Remove(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]int64, error)
}

type reviewerRepository struct {
	db *sql.DB
}

// NewReviewerRepository instantiates repository.
func NewReviewerRepository(db *sql.DB) ReviewerRepository {
	return &reviewerRepository{db: db}
}

func (r *reviewerRepository) IsReviewer(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT 1 FROM reviewers WHERE user_id = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Add inserts the identity; adding an existing member is a no-op.
func (r *reviewerRepository) Add(ctx context.Context, userID int64) error {
	const query = `INSERT OR IGNORE INTO reviewers (user_id) VALUES (?)`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// Remove deletes the identity; removing a non-member is a no-op.
func (r *reviewerRepository) Remove(ctx context.Context, userID int64) error {
	const query = `DELETE FROM reviewers WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *reviewerRepository) List(ctx context.Context) ([]int64, error) {
	const query = `SELECT user_id FROM reviewers ORDER BY user_id`
	return queryIDs(ctx, r.db, query)
}

func queryIDs(ctx context.Context, db *sql.DB, query string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
