package dto

// SubmitTicketRequest payload.
type SubmitTicketRequest struct {
	Text string `json:"text"`
}

// SubmitTicketResponse payload.
type SubmitTicketResponse struct {
	TicketID int64 `json:"ticket_id"`
}

// ClaimedTicket describes a successfully claimed ticket.
type ClaimedTicket struct {
	TicketID  int64  `json:"ticket_id"`
	AuthorID  int64  `json:"author_id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	ClaimedBy int64  `json:"claimed_by"`
	ClaimedAt int64  `json:"claimed_at"`
}

// ClaimAllResponse reports a bulk claim. Only the first conflict is
// surfaced as a message; the per-ticket outcomes carry the rest.
type ClaimAllResponse struct {
	Attempted int             `json:"attempted"`
	Claimed   []ClaimedTicket `json:"claimed"`
	Conflict  *string         `json:"conflict,omitempty"`
}

// RespondRequest payload.
type RespondRequest struct {
	Text string `json:"text"`
}

// RespondResponse tells the messaging layer where to deliver the reply.
type RespondResponse struct {
	TicketID    int64   `json:"ticket_id"`
	AuthorID    int64   `json:"author_id"`
	ExternalRef *string `json:"external_ref,omitempty"`
}

// TicketDetail is the reviewer-facing view of a ticket.
type TicketDetail struct {
	TicketID    int64   `json:"ticket_id"`
	AuthorID    int64   `json:"author_id"`
	Text        string  `json:"text"`
	CreatedAt   int64   `json:"created_at"`
	ClaimedBy   *int64  `json:"claimed_by,omitempty"`
	ClaimedAt   *int64  `json:"claimed_at,omitempty"`
	RemindedAt  *int64  `json:"reminded_at,omitempty"`
	ExternalRef *string `json:"external_ref,omitempty"`
}

// PendingResponse lists unclaimed ticket ids in ascending order.
type PendingResponse struct {
	TicketIDs []int64 `json:"ticket_ids"`
}

// ExternalRefRequest payload for the messaging layer write-back.
type ExternalRefRequest struct {
	Ref string `json:"ref"`
}
