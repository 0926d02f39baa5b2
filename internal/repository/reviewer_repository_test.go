package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewerMembershipIdempotent(t *testing.T) {
	repo := NewReviewerRepository(newTestDB(t))
	ctx := context.Background()

	ok, err := repo.IsReviewer(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Add(ctx, 5))
	require.NoError(t, repo.Add(ctx, 5))

	ok, err = repo.IsReviewer(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)

	require.NoError(t, repo.Remove(ctx, 5))
	require.NoError(t, repo.Remove(ctx, 5))

	ok, err = repo.IsReviewer(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReviewerListSorted(t *testing.T) {
	repo := NewReviewerRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, 30))
	require.NoError(t, repo.Add(ctx, 10))
	require.NoError(t, repo.Add(ctx, 20))

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, ids)
}
