package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsDenseAscendingIDs(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.Create(ctx, 100, "first request", 1000)
	require.NoError(t, err)
	second, err := repo.Create(ctx, 200, "second request", 1001)
	require.NoError(t, err)
	third, err := repo.Create(ctx, 100, "third request", 1002)
	require.NoError(t, err)

	assert.Equal(t, first.ID+1, second.ID)
	assert.Equal(t, second.ID+1, third.ID)
}

func TestGetByIDRoundTrip(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, 42, "please remove this", 1234)
	require.NoError(t, err)

	ticket, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, ticket.ID)
	assert.Equal(t, int64(42), ticket.AuthorID)
	assert.Equal(t, "please remove this", ticket.Text)
	assert.Equal(t, int64(1234), ticket.CreatedAt)
	assert.Nil(t, ticket.ClaimedBy)
	assert.Nil(t, ticket.ClaimedAt)
	assert.Nil(t, ticket.RemindedAt)
	assert.Nil(t, ticket.ExternalRef)
}

func TestGetByIDUnknown(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), 9999)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestClaimSucceedsOnceThenFails(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	ticket, err := repo.Create(ctx, 1, "text", 1000)
	require.NoError(t, err)

	won, err := repo.Claim(ctx, ticket.ID, 10, 2000)
	require.NoError(t, err)
	assert.True(t, won)

	// Second attempt hits claimed_by IS NULL and modifies nothing.
	won, err = repo.Claim(ctx, ticket.ID, 20, 2001)
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ClaimedBy)
	assert.Equal(t, int64(10), *stored.ClaimedBy)
	require.NotNil(t, stored.ClaimedAt)
	assert.Equal(t, int64(2000), *stored.ClaimedAt)
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	ticket, err := repo.Create(ctx, 1, "contested", 1000)
	require.NoError(t, err)

	const claimants = 8
	results := make([]bool, claimants)
	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			won, err := repo.Claim(ctx, ticket.ID, int64(100+i), 2000)
			assert.NoError(t, err)
			results[i] = won
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, won := range results {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestListPendingIDsOrderAndMembership(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, 1, "a", 1000)
	require.NoError(t, err)
	b, err := repo.Create(ctx, 2, "b", 1001)
	require.NoError(t, err)
	c, err := repo.Create(ctx, 3, "c", 1002)
	require.NoError(t, err)

	won, err := repo.Claim(ctx, b.ID, 10, 2000)
	require.NoError(t, err)
	require.True(t, won)

	ids, err := repo.ListPendingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID}, ids)
}

func TestReminderEligibility(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	stale, err := repo.Create(ctx, 1, "stale", 1000)
	require.NoError(t, err)
	fresh, err := repo.Create(ctx, 2, "fresh", 5000)
	require.NoError(t, err)
	claimed, err := repo.Create(ctx, 3, "claimed", 1000)
	require.NoError(t, err)
	won, err := repo.Claim(ctx, claimed.ID, 10, 1500)
	require.NoError(t, err)
	require.True(t, won)

	eligible, err := repo.ListReminderEligible(ctx, 2000)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, stale.ID, eligible[0].ID)
	assert.NotEqual(t, fresh.ID, eligible[0].ID)

	// Once marked, the ticket drops out of every later scan.
	require.NoError(t, repo.MarkReminded(ctx, stale.ID, 2500))
	eligible, err = repo.ListReminderEligible(ctx, 2000)
	require.NoError(t, err)
	assert.Empty(t, eligible)

	stored, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RemindedAt)
	assert.Equal(t, int64(2500), *stored.RemindedAt)
}

func TestCountRecentByAuthorWindow(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, 7, "one", 1000)
	require.NoError(t, err)
	_, err = repo.Create(ctx, 7, "two", 1500)
	require.NoError(t, err)
	_, err = repo.Create(ctx, 8, "other author", 1500)
	require.NoError(t, err)

	count, err := repo.CountRecentByAuthor(ctx, 7, 900)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// created_at >= since is inclusive.
	count, err = repo.CountRecentByAuthor(ctx, 7, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.CountRecentByAuthor(ctx, 7, 1501)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSetExternalRef(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t))
	ctx := context.Background()

	ticket, err := repo.Create(ctx, 1, "text", 1000)
	require.NoError(t, err)

	require.NoError(t, repo.SetExternalRef(ctx, ticket.ID, "chan:42/msg:77"))
	stored, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalRef)
	assert.Equal(t, "chan:42/msg:77", *stored.ExternalRef)

	err = repo.SetExternalRef(ctx, 9999, "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
