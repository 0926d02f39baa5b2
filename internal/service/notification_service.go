package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/domain"
	"github.com/L235/OversightBot/internal/events"
	"github.com/L235/OversightBot/internal/persistence"
	"github.com/L235/OversightBot/internal/repository"
)

// announceDedupTTL bounds how long delivered announce keys are remembered.
const announceDedupTTL = 24 * time.Hour

// NotificationService renders domain events into announcements for the
// review channel and notifications for ticket authors. Deliveries are
// best-effort: a failed delivery is logged, never escalated.
type NotificationService struct {
	dispatcher events.Dispatcher
	pings      repository.PingRepository
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, pings repository.PingRepository, redis *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		pings:      pings,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketClaimed, n.handleTicketClaimed)
	n.dispatcher.Subscribe(events.EventTicketResponded, n.handleTicketResponded)
	n.dispatcher.Subscribe(events.EventTicketViewed, n.handleTicketViewed)
	n.dispatcher.Subscribe(events.EventReviewerAdded, n.handleReviewerChange)
	n.dispatcher.Subscribe(events.EventReviewerRemoved, n.handleReviewerChange)
}

// RemindAuthor delivers the one-time unclaimed-ticket reminder to the
// ticket's author.
func (n *NotificationService) RemindAuthor(ctx context.Context, ticket domain.Ticket, extID int64, delay time.Duration) error {
	n.logger.Info("reminder sent to author",
		zap.Int64("ticket_id", extID),
		zap.Int64("author_id", ticket.AuthorID),
		zap.Duration("unclaimed_for", delay))
	n.notifyWebhook(ctx, "reminder", extID)
	return nil
}

// Announce posts a message to the review channel.
func (n *NotificationService) Announce(ctx context.Context, message string) error {
	n.logger.Info("announcement", zap.String("message", message))
	n.notifyWebhook(ctx, "announce", 0)
	return nil
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	if !n.acquireOnce(ctx, event) {
		return nil
	}
	targets, err := n.pings.ListSubscribers(ctx)
	if err != nil {
		n.logger.Warn("unable to load ping subscribers", zap.Error(err))
		targets = nil
	}
	n.logger.Info("new ticket announced",
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64s("ping_targets", targets))
	n.notifyWebhook(ctx, string(event.Type), event.TicketID)
	return nil
}

func (n *NotificationService) handleTicketClaimed(ctx context.Context, event events.Event) error {
	if !n.acquireOnce(ctx, event) {
		return nil
	}
	n.logger.Info("claim announced",
		zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.notifyWebhook(ctx, string(event.Type), event.TicketID)
	return nil
}

func (n *NotificationService) handleTicketResponded(ctx context.Context, event events.Event) error {
	if !n.acquireOnce(ctx, event) {
		return nil
	}
	n.logger.Info("response delivered",
		zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.notifyWebhook(ctx, string(event.Type), event.TicketID)
	return nil
}

func (n *NotificationService) handleTicketViewed(ctx context.Context, event events.Event) error {
	n.logger.Info("view announced",
		zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleReviewerChange(ctx context.Context, event events.Event) error {
	n.logger.Info("roster change announced",
		zap.String("event_type", string(event.Type)), zap.Any("payload", event.Payload))
	return nil
}

// acquireOnce dedups delivery per event id through the Redis side store.
func (n *NotificationService) acquireOnce(ctx context.Context, event events.Event) bool {
	key := fmt.Sprintf("announce:%s", event.ID)
	return n.redis.AcquireOnce(ctx, key, announceDedupTTL)
}

func (n *NotificationService) notifyWebhook(ctx context.Context, kind string, ticketID int64) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification queued",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("kind", kind),
		zap.Int64("ticket_id", ticketID))
}
