package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted EventType = "ticket_submitted"
	EventTicketClaimed   EventType = "ticket_claimed"
	EventTicketResponded EventType = "ticket_responded"
	EventTicketViewed    EventType = "ticket_viewed"
	EventReviewerAdded   EventType = "reviewer_added"
	EventReviewerRemoved EventType = "reviewer_removed"
)

// Event represents a domain event emitted by services. Ticket ids in events
// are external (display) ids, ready for rendering.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	AuthorID int64 `json:"author_id"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	ClaimantID int64 `json:"claimant_id"`
	AuthorID   int64 `json:"author_id"`
}

// TicketRespondedPayload payload.
type TicketRespondedPayload struct {
	ResponderID int64   `json:"responder_id"`
	AuthorID    int64   `json:"author_id"`
	Text        string  `json:"text"`
	ExternalRef *string `json:"external_ref,omitempty"`
}

// TicketViewedPayload payload.
type TicketViewedPayload struct {
	ViewerID int64 `json:"viewer_id"`
	Claimed  bool  `json:"claimed"`
}

// ReviewerChangePayload payload for roster add/remove events.
type ReviewerChangePayload struct {
	AdminID int64   `json:"admin_id"`
	Targets []int64 `json:"targets"`
}
