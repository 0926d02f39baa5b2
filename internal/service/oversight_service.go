package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/domain"
	"github.com/L235/OversightBot/internal/events"
	"github.com/L235/OversightBot/internal/repository"
	apperrors "github.com/L235/OversightBot/pkg/util"
)

// OversightService coordinates the ticket lifecycle: submission, claiming,
// responding, and pending queries. Authorization and rate limiting are
// evaluated before any mutating store call.
type OversightService struct {
	tickets    repository.TicketRepository
	access     *AccessService
	limiter    *RateLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	idOffset   int64

	now func() time.Time
}

// OversightDependencies bundles collaborators for the orchestrator.
type OversightDependencies struct {
	TicketRepo repository.TicketRepository
	Access     *AccessService
	Limiter    *RateLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ClaimResult describes a successful claim, ready for rendering.
type ClaimResult struct {
	TicketID  int64
	AuthorID  int64
	Text      string
	CreatedAt int64
	ClaimedBy int64
	ClaimedAt int64
}

// ClaimOutcome reports the result of one attempt inside a bulk claim.
type ClaimOutcome struct {
	TicketID  int64
	Claimed   *ClaimResult
	ClaimedBy *int64 // set when another reviewer won the race
}

// RespondResult carries what the messaging layer needs to deliver a reply.
type RespondResult struct {
	TicketID    int64
	AuthorID    int64
	ExternalRef *string
}

// TicketView is a read-only projection of a ticket for reviewers.
type TicketView struct {
	TicketID    int64
	AuthorID    int64
	Text        string
	CreatedAt   int64
	ClaimedBy   *int64
	ClaimedAt   *int64
	RemindedAt  *int64
	ExternalRef *string
}

// NewOversightService constructs the orchestrator.
func NewOversightService(cfg config.OversightConfig, deps OversightDependencies) *OversightService {
	return &OversightService{
		tickets:    deps.TicketRepo,
		access:     deps.Access,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		idOffset:   cfg.IDOffset,
		now:        time.Now,
	}
}

// Submit files a new ticket, enforcing the submission quota for non-exempt
// authors, and returns the external ticket id. Reviewers and administrators
// are exempt from the limit; the window count is not computed for them.
func (s *OversightService) Submit(ctx context.Context, authorID int64, hasReviewerRole bool, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, apperrors.NewValidationError("request text required", nil)
	}

	now := s.now().UTC()

	exempt := s.access.IsAdmin(authorID) || hasReviewerRole
	if !exempt {
		isReviewer, err := s.access.IsReviewer(ctx, authorID)
		if err != nil {
			return 0, err
		}
		exempt = isReviewer
	}
	if !exempt {
		allowed, err := s.limiter.Allow(ctx, authorID, now)
		if err != nil {
			return 0, apperrors.NewPersistenceFailure(err)
		}
		if !allowed {
			return 0, apperrors.NewRateLimited(s.limiter.Limit(), s.limiter.WindowSeconds())
		}
	}

	ticket, err := s.tickets.Create(ctx, authorID, text, now.Unix())
	if err != nil {
		return 0, apperrors.NewPersistenceFailure(err)
	}

	extID := s.externalID(ticket.ID)
	s.logger.Info("ticket submitted",
		zap.Int64("ticket_id", extID), zap.Int64("author_id", authorID))
	s.publish(ctx, events.Event{
		Type:     events.EventTicketSubmitted,
		TicketID: extID,
		ActorID:  authorID,
		Payload:  events.TicketSubmittedPayload{AuthorID: authorID},
	})
	return extID, nil
}

// Claim attempts to claim a single ticket for the requester. On a lost race
// the returned error carries the winning claimant's id.
func (s *OversightService) Claim(ctx context.Context, requesterID int64, hasReviewerRole bool, extID int64) (*ClaimResult, error) {
	if err := s.access.RequireReviewer(ctx, requesterID, hasReviewerRole); err != nil {
		return nil, err
	}
	id, err := s.internalID(extID)
	if err != nil {
		return nil, err
	}
	return s.claimOne(ctx, requesterID, id, extID)
}

// ClaimAll claims every pending ticket as of the call, in ascending id
// order. A ticket lost to a racing reviewer does not abort the batch; the
// conflict is recorded in that ticket's outcome. Tickets created after the
// pending snapshot are not touched.
func (s *OversightService) ClaimAll(ctx context.Context, requesterID int64, hasReviewerRole bool) ([]ClaimOutcome, error) {
	if err := s.access.RequireReviewer(ctx, requesterID, hasReviewerRole); err != nil {
		return nil, err
	}
	ids, err := s.tickets.ListPendingIDs(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}

	outcomes := make([]ClaimOutcome, 0, len(ids))
	for _, id := range ids {
		extID := s.externalID(id)
		result, err := s.claimOne(ctx, requesterID, id, extID)
		if err != nil {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == "ALREADY_CLAIMED" {
				claimant, _ := domainErr.Details["claimed_by"].(int64)
				outcomes = append(outcomes, ClaimOutcome{TicketID: extID, ClaimedBy: &claimant})
				continue
			}
			return outcomes, err
		}
		outcomes = append(outcomes, ClaimOutcome{TicketID: extID, Claimed: result})
	}
	return outcomes, nil
}

func (s *OversightService) claimOne(ctx context.Context, requesterID, id, extID int64) (*ClaimResult, error) {
	ticket, err := s.fetch(ctx, id, extID)
	if err != nil {
		return nil, err
	}

	if !ticket.Claimed() {
		now := s.now().UTC().Unix()
		won, err := s.tickets.Claim(ctx, id, requesterID, now)
		if err != nil {
			return nil, apperrors.NewPersistenceFailure(err)
		}
		if !won {
			// Lost the race; re-fetch to discover the winner.
			ticket, err = s.fetch(ctx, id, extID)
			if err != nil {
				return nil, err
			}
		} else {
			ticket.ClaimedBy = &requesterID
			ticket.ClaimedAt = &now
		}
	}

	if ticket.ClaimedByOther(requesterID) {
		return nil, apperrors.NewAlreadyClaimed(*ticket.ClaimedBy)
	}

	s.logger.Info("ticket claimed",
		zap.Int64("ticket_id", extID), zap.Int64("claimed_by", requesterID))
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClaimed,
		TicketID: extID,
		ActorID:  requesterID,
		Payload: events.TicketClaimedPayload{
			ClaimantID: requesterID,
			AuthorID:   ticket.AuthorID,
		},
	})
	return &ClaimResult{
		TicketID:  extID,
		AuthorID:  ticket.AuthorID,
		Text:      ticket.Text,
		CreatedAt: ticket.CreatedAt,
		ClaimedBy: *ticket.ClaimedBy,
		ClaimedAt: *ticket.ClaimedAt,
	}, nil
}

// Respond hands back delivery details for a reply to the ticket author. It
// never mutates ticket state; a ticket may be responded to repeatedly.
func (s *OversightService) Respond(ctx context.Context, requesterID int64, hasReviewerRole bool, extID int64, text string) (*RespondResult, error) {
	if err := s.access.RequireReviewer(ctx, requesterID, hasReviewerRole); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("response text required", nil)
	}
	id, err := s.internalID(extID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, id, extID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket responded",
		zap.Int64("ticket_id", extID), zap.Int64("responder_id", requesterID))
	s.publish(ctx, events.Event{
		Type:     events.EventTicketResponded,
		TicketID: extID,
		ActorID:  requesterID,
		Payload: events.TicketRespondedPayload{
			ResponderID: requesterID,
			AuthorID:    ticket.AuthorID,
			Text:        text,
			ExternalRef: ticket.ExternalRef,
		},
	})
	return &RespondResult{
		TicketID:    extID,
		AuthorID:    ticket.AuthorID,
		ExternalRef: ticket.ExternalRef,
	}, nil
}

// View returns any ticket, claimed or not, to an authorized reviewer.
func (s *OversightService) View(ctx context.Context, requesterID int64, hasReviewerRole bool, extID int64) (*TicketView, error) {
	if err := s.access.RequireReviewer(ctx, requesterID, hasReviewerRole); err != nil {
		return nil, err
	}
	id, err := s.internalID(extID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.fetch(ctx, id, extID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketViewed,
		TicketID: extID,
		ActorID:  requesterID,
		Payload: events.TicketViewedPayload{
			ViewerID: requesterID,
			Claimed:  ticket.Claimed(),
		},
	})
	return &TicketView{
		TicketID:    extID,
		AuthorID:    ticket.AuthorID,
		Text:        ticket.Text,
		CreatedAt:   ticket.CreatedAt,
		ClaimedBy:   ticket.ClaimedBy,
		ClaimedAt:   ticket.ClaimedAt,
		RemindedAt:  ticket.RemindedAt,
		ExternalRef: ticket.ExternalRef,
	}, nil
}

// ListPending returns the external ids of unclaimed tickets in ascending
// creation order.
func (s *OversightService) ListPending(ctx context.Context, requesterID int64, hasReviewerRole bool) ([]int64, error) {
	if err := s.access.RequireReviewer(ctx, requesterID, hasReviewerRole); err != nil {
		return nil, err
	}
	ids, err := s.tickets.ListPendingIDs(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	extIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		extIDs = append(extIDs, s.externalID(id))
	}
	return extIDs, nil
}

// SetExternalRef persists the messaging layer's rendered-announcement
// reference against a ticket. The value is opaque to the engine.
func (s *OversightService) SetExternalRef(ctx context.Context, extID int64, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return apperrors.NewValidationError("external ref required", nil)
	}
	id, err := s.internalID(extID)
	if err != nil {
		return err
	}
	if err := s.tickets.SetExternalRef(ctx, id, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewUnknownTicket(extID)
		}
		return apperrors.NewPersistenceFailure(err)
	}
	return nil
}

func (s *OversightService) fetch(ctx context.Context, id, extID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewUnknownTicket(extID)
		}
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return ticket, nil
}

func (s *OversightService) externalID(id int64) int64 {
	return id + s.idOffset
}

func (s *OversightService) internalID(extID int64) (int64, error) {
	id := extID - s.idOffset
	if id <= 0 {
		return 0, apperrors.NewInvalidID(extID)
	}
	return id, nil
}

func (s *OversightService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
