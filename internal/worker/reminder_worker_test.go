package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/domain"
	"github.com/L235/OversightBot/internal/persistence"
	"github.com/L235/OversightBot/internal/repository"
)

type recordingNotifier struct {
	reminded  []int64
	announced []string
	failOnce  bool
}

func (n *recordingNotifier) RemindAuthor(_ context.Context, _ domain.Ticket, extID int64, _ time.Duration) error {
	if n.failOnce {
		n.failOnce = false
		return errors.New("author unreachable")
	}
	n.reminded = append(n.reminded, extID)
	return nil
}

func (n *recordingNotifier) Announce(_ context.Context, message string) error {
	n.announced = append(n.announced, message)
	return nil
}

func newWorkerFixture(t *testing.T, notifier Notifier) (*ReminderWorker, repository.TicketRepository) {
	t.Helper()

	store, err := persistence.NewSQLite(config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "oversight.sqlite"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, persistence.ApplySchema(context.Background(), store.Handle(), zap.NewNop()))

	cfg := config.OversightConfig{
		ReminderMinutes:         15,
		ReminderIntervalSeconds: 60,
	}
	tickets := repository.NewTicketRepository(store.Handle())
	return NewReminderWorker(cfg, tickets, notifier, zap.NewNop()), tickets
}

func TestRunPassRemindsExactlyOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	w, tickets := newWorkerFixture(t, notifier)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0).UTC()
	ticket, err := tickets.Create(ctx, 100, "stale request", base.Unix())
	require.NoError(t, err)

	// Not yet past the delay.
	require.NoError(t, w.RunPass(ctx, base.Add(14*time.Minute)))
	assert.Empty(t, notifier.reminded)

	require.NoError(t, w.RunPass(ctx, base.Add(16*time.Minute)))
	assert.Equal(t, []int64{ticket.ID}, notifier.reminded)
	assert.Len(t, notifier.announced, 1)

	// Later passes never re-remind.
	require.NoError(t, w.RunPass(ctx, base.Add(17*time.Minute)))
	require.NoError(t, w.RunPass(ctx, base.Add(60*time.Minute)))
	assert.Equal(t, []int64{ticket.ID}, notifier.reminded)
	assert.Len(t, notifier.announced, 1)
}

func TestRunPassSkipsClaimedTickets(t *testing.T) {
	notifier := &recordingNotifier{}
	w, tickets := newWorkerFixture(t, notifier)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0).UTC()
	ticket, err := tickets.Create(ctx, 100, "claimed quickly", base.Unix())
	require.NoError(t, err)
	won, err := tickets.Claim(ctx, ticket.ID, 500, base.Add(time.Minute).Unix())
	require.NoError(t, err)
	require.True(t, won)

	require.NoError(t, w.RunPass(ctx, base.Add(time.Hour)))
	assert.Empty(t, notifier.reminded)
	assert.Empty(t, notifier.announced)
}

func TestRunPassDeliveryFailureStillMarks(t *testing.T) {
	notifier := &recordingNotifier{failOnce: true}
	w, tickets := newWorkerFixture(t, notifier)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0).UTC()
	first, err := tickets.Create(ctx, 100, "delivery fails", base.Unix())
	require.NoError(t, err)
	second, err := tickets.Create(ctx, 101, "delivery works", base.Unix())
	require.NoError(t, err)

	require.NoError(t, w.RunPass(ctx, base.Add(time.Hour)))

	// The failed delivery did not stop the scan; both tickets are marked
	// and only the second author was reached.
	assert.Equal(t, []int64{second.ID}, notifier.reminded)
	assert.Len(t, notifier.announced, 2)

	stored, err := tickets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RemindedAt)

	eligible, err := tickets.ListReminderEligible(ctx, base.Add(2*time.Hour).Unix())
	require.NoError(t, err)
	assert.Empty(t, eligible)
}

func TestExternalIDOffsetInReminders(t *testing.T) {
	notifier := &recordingNotifier{}
	w, tickets := newWorkerFixture(t, notifier)
	w.idOffset = 1000
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0).UTC()
	ticket, err := tickets.Create(ctx, 100, "stale", base.Unix())
	require.NoError(t, err)

	require.NoError(t, w.RunPass(ctx, base.Add(time.Hour)))
	assert.Equal(t, []int64{ticket.ID + 1000}, notifier.reminded)
}
