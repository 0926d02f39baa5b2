package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/events"
	"github.com/L235/OversightBot/internal/repository"
	apperrors "github.com/L235/OversightBot/pkg/util"
)

// AccessService answers authorization questions and manages the reviewer
// roster and ping subscriptions. Administrators come from immutable
// configuration; reviewers live in storage and change at runtime.
type AccessService struct {
	reviewers  repository.ReviewerRepository
	pings      repository.PingRepository
	admins     map[int64]struct{}
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AccessDependencies bundles collaborators for the access service.
type AccessDependencies struct {
	ReviewerRepo repository.ReviewerRepository
	PingRepo     repository.PingRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAccessService constructs the service.
func NewAccessService(cfg config.OversightConfig, deps AccessDependencies) *AccessService {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	return &AccessService{
		reviewers:  deps.ReviewerRepo,
		pings:      deps.PingRepo,
		admins:     admins,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// IsAdmin reports whether the identity is a configured administrator.
func (s *AccessService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// IsReviewer reports whether the identity is in the stored reviewer set.
func (s *AccessService) IsReviewer(ctx context.Context, userID int64) (bool, error) {
	ok, err := s.reviewers.IsReviewer(ctx, userID)
	if err != nil {
		return false, apperrors.NewPersistenceFailure(err)
	}
	return ok, nil
}

// RequireReviewer returns NOT_AUTHORIZED unless the requester is a stored
// reviewer or carries the platform reviewer-role capability asserted by the
// gateway token.
func (s *AccessService) RequireReviewer(ctx context.Context, userID int64, hasReviewerRole bool) error {
	if hasReviewerRole {
		return nil
	}
	ok, err := s.IsReviewer(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotAuthorized("you are not configured as a reviewer")
	}
	return nil
}

// RequireAdmin returns NOT_AUTHORIZED unless the requester is a configured
// administrator.
func (s *AccessService) RequireAdmin(userID int64) error {
	if !s.IsAdmin(userID) {
		return apperrors.NewNotAuthorized("only administrators may manage reviewers")
	}
	return nil
}

// AddReviewers inserts each target into the reviewer set. Idempotent per
// target.
func (s *AccessService) AddReviewers(ctx context.Context, adminID int64, targets []int64) error {
	if err := s.RequireAdmin(adminID); err != nil {
		return err
	}
	for _, target := range targets {
		if err := s.reviewers.Add(ctx, target); err != nil {
			return apperrors.NewPersistenceFailure(err)
		}
	}
	s.logger.Info("reviewers added", zap.Int64("admin_id", adminID), zap.Int64s("targets", targets))
	s.publishRosterEvent(ctx, events.EventReviewerAdded, adminID, targets)
	return nil
}

// RemoveReviewers deletes each target from the reviewer set. Removing a
// non-member is a no-op.
func (s *AccessService) RemoveReviewers(ctx context.Context, adminID int64, targets []int64) error {
	if err := s.RequireAdmin(adminID); err != nil {
		return err
	}
	for _, target := range targets {
		if err := s.reviewers.Remove(ctx, target); err != nil {
			return apperrors.NewPersistenceFailure(err)
		}
	}
	s.logger.Info("reviewers removed", zap.Int64("admin_id", adminID), zap.Int64s("targets", targets))
	s.publishRosterEvent(ctx, events.EventReviewerRemoved, adminID, targets)
	return nil
}

// ListReviewers returns the current roster. Administrators only.
func (s *AccessService) ListReviewers(ctx context.Context, adminID int64) ([]int64, error) {
	if err := s.RequireAdmin(adminID); err != nil {
		return nil, err
	}
	ids, err := s.reviewers.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceFailure(err)
	}
	return ids, nil
}

// SetPingSubscription toggles the requester's opt-in for new-ticket pings.
// Ping preference is a reviewer-only concern: administrators are not exempt
// from the reviewer check here.
func (s *AccessService) SetPingSubscription(ctx context.Context, userID int64, hasReviewerRole, enabled bool) error {
	if err := s.RequireReviewer(ctx, userID, hasReviewerRole); err != nil {
		return err
	}
	var err error
	if enabled {
		err = s.pings.Subscribe(ctx, userID)
	} else {
		err = s.pings.Unsubscribe(ctx, userID)
	}
	if err != nil {
		return apperrors.NewPersistenceFailure(err)
	}
	s.logger.Info("ping subscription updated",
		zap.Int64("user_id", userID), zap.Bool("enabled", enabled))
	return nil
}

func (s *AccessService) publishRosterEvent(ctx context.Context, eventType events.EventType, adminID int64, targets []int64) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   adminID,
		Timestamp: time.Now().UTC(),
		Payload: events.ReviewerChangePayload{
			AdminID: adminID,
			Targets: targets,
		},
	})
}
