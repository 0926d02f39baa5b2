package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/domain"
	"github.com/L235/OversightBot/internal/repository"
)

// Notifier delivers reminder notifications. Owned by the messaging layer;
// the worker only invokes it.
type Notifier interface {
	RemindAuthor(ctx context.Context, ticket domain.Ticket, extID int64, delay time.Duration) error
	Announce(ctx context.Context, message string) error
}

// ReminderWorker periodically scans for stale unclaimed tickets and
// escalates each at most once. Delivery failures are suppressed per ticket
// so the rest of the scan proceeds, and a failed pass never stops the loop.
type ReminderWorker struct {
	tickets  repository.TicketRepository
	notifier Notifier
	logger   *zap.Logger
	interval time.Duration
	delay    time.Duration
	idOffset int64

	now func() time.Time
}

// NewReminderWorker constructs the worker.
func NewReminderWorker(cfg config.OversightConfig, tickets repository.TicketRepository, notifier Notifier, logger *zap.Logger) *ReminderWorker {
	return &ReminderWorker{
		tickets:  tickets,
		notifier: notifier,
		logger:   logger,
		interval: cfg.ReminderInterval(),
		delay:    cfg.ReminderDelay(),
		idOffset: cfg.IDOffset,
		now:      time.Now,
	}
}

// Start runs the scan loop until the context is cancelled. Cancellation is
// observed at interval boundaries; an in-flight pass finishes.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started",
		zap.Duration("interval", w.interval), zap.Duration("delay", w.delay))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			if err := w.RunPass(ctx, w.now()); err != nil {
				w.logger.Error("reminder pass failed", zap.Error(err))
			}
		}
	}
}

// RunPass executes a single scan at the given instant. Exposed so tests can
// drive simulated time without waiting on the ticker.
func (w *ReminderWorker) RunPass(ctx context.Context, now time.Time) error {
	cutoff := now.UTC().Add(-w.delay).Unix()
	eligible, err := w.tickets.ListReminderEligible(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list reminder eligible: %w", err)
	}

	for _, ticket := range eligible {
		extID := ticket.ID + w.idOffset

		if err := w.notifier.RemindAuthor(ctx, ticket, extID, w.delay); err != nil {
			w.logger.Warn("reminder delivery failed",
				zap.Int64("ticket_id", extID),
				zap.Int64("author_id", ticket.AuthorID),
				zap.Error(err))
		}
		msg := fmt.Sprintf("sent unclaimed-ticket reminder for %d (unclaimed for over %s)", extID, w.delay)
		if err := w.notifier.Announce(ctx, msg); err != nil {
			w.logger.Warn("reminder announce failed",
				zap.Int64("ticket_id", extID), zap.Error(err))
		}

		// Marked regardless of delivery success: one reminder attempt per
		// ticket, ever.
		if err := w.tickets.MarkReminded(ctx, ticket.ID, now.UTC().Unix()); err != nil {
			w.logger.Error("mark reminded failed",
				zap.Int64("ticket_id", extID), zap.Error(err))
			continue
		}
		w.logger.Info("ticket reminded", zap.Int64("ticket_id", extID))
	}
	return nil
}
