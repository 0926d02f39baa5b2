package repository

import (
	"context"
	"database/sql"

	"github.com/L235/OversightBot/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, authorID int64, text string, now int64) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Claim(ctx context.Context, id, claimantID, now int64) (bool, error)
	ListPendingIDs(ctx context.Context) ([]int64, error)
	ListReminderEligible(ctx context.Context, cutoff int64) ([]domain.Ticket, error)
	MarkReminded(ctx context.Context, id, now int64) error
	CountRecentByAuthor(ctx context.Context, authorID, since int64) (int, error)
	SetExternalRef(ctx context.Context, id int64, ref string) error
}

type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, author_id, text, created_at, claimed_by, claimed_at, reminded_at, external_ref`

func (r *ticketRepository) Create(ctx context.Context, authorID int64, text string, now int64) (*domain.Ticket, error) {
	const query = `INSERT INTO tickets (author_id, text, created_at) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, authorID, text, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Ticket{
		ID:        id,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
	}, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	return scanTicket(r.db.QueryRowContext(ctx, query, id))
}

// Claim performs the atomic conditional update that guarantees at most one
// successful claimant: the claimed_by IS NULL predicate makes concurrent
// attempts race inside the storage engine, and exactly one modifies a row.
func (r *ticketRepository) Claim(ctx context.Context, id, claimantID, now int64) (bool, error) {
	const query = `UPDATE tickets SET claimed_by = ?, claimed_at = ?
        WHERE id = ? AND claimed_by IS NULL`
	res, err := r.db.ExecContext(ctx, query, claimantID, now, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *ticketRepository) ListPendingIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM tickets WHERE claimed_by IS NULL ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
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

func (r *ticketRepository) ListReminderEligible(ctx context.Context, cutoff int64) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets
        WHERE claimed_by IS NULL AND created_at < ? AND reminded_at IS NULL
        ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) MarkReminded(ctx context.Context, id, now int64) error {
	const query = `UPDATE tickets SET reminded_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, now, id)
	return err
}

func (r *ticketRepository) CountRecentByAuthor(ctx context.Context, authorID, since int64) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE author_id = ? AND created_at >= ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, authorID, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) SetExternalRef(ctx context.Context, id int64, ref string) error {
	const query = `UPDATE tickets SET external_ref = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, ref, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.AuthorID,
		&ticket.Text,
		&ticket.CreatedAt,
		&ticket.ClaimedBy,
		&ticket.ClaimedAt,
		&ticket.RemindedAt,
		&ticket.ExternalRef,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows *sql.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
