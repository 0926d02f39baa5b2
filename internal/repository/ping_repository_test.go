package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingSubscriptionIdempotent(t *testing.T) {
	repo := NewPingRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Subscribe(ctx, 9))
	require.NoError(t, repo.Subscribe(ctx, 9))
	require.NoError(t, repo.Subscribe(ctx, 4))

	subs, err := repo.ListSubscribers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 9}, subs)

	require.NoError(t, repo.Unsubscribe(ctx, 9))
	require.NoError(t, repo.Unsubscribe(ctx, 9))

	subs, err = repo.ListSubscribers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, subs)
}
