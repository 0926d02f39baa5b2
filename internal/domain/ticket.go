package domain

// Ticket is the aggregate for oversight requests. All timestamps are UTC
// seconds since epoch so comparisons never involve timezone arithmetic.
type Ticket struct {
	ID          int64
	AuthorID    int64
	Text        string
	CreatedAt   int64
	ClaimedBy   *int64
	ClaimedAt   *int64
	RemindedAt  *int64
	ExternalRef *string
}

// Claimed reports whether the ticket has been claimed by a reviewer.
func (t *Ticket) Claimed() bool {
	return t.ClaimedBy != nil
}

// ClaimedByOther reports whether the ticket is claimed by someone else.
func (t *Ticket) ClaimedByOther(userID int64) bool {
	return t.ClaimedBy != nil && *t.ClaimedBy != userID
}

// Reminded reports whether the one-time reminder has already been sent.
func (t *Ticket) Reminded() bool {
	return t.RemindedAt != nil
}
