package service

import (
	"context"
	"time"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/repository"
)

// RateLimiter evaluates the per-author submission quota over a trailing
// window. The window slides with every check, so the limit heals
// continuously instead of resetting at fixed boundaries.
type RateLimiter struct {
	tickets       repository.TicketRepository
	limit         int
	windowSeconds int
}

// NewRateLimiter constructs the limiter from the lifecycle policy.
func NewRateLimiter(cfg config.OversightConfig, tickets repository.TicketRepository) *RateLimiter {
	return &RateLimiter{
		tickets:       tickets,
		limit:         cfg.SubmissionLimit,
		windowSeconds: cfg.CooldownSeconds,
	}
}

// Allow reports whether the author may submit at the given instant.
func (l *RateLimiter) Allow(ctx context.Context, authorID int64, now time.Time) (bool, error) {
	since := now.Unix() - int64(l.windowSeconds)
	count, err := l.tickets.CountRecentByAuthor(ctx, authorID, since)
	if err != nil {
		return false, err
	}
	return count < l.limit, nil
}

// Limit returns the configured maximum submissions per window.
func (l *RateLimiter) Limit() int {
	return l.limit
}

// WindowSeconds returns the configured window length.
func (l *RateLimiter) WindowSeconds() int {
	return l.windowSeconds
}
