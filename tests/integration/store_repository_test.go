package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushrelay/internal/store"
)

func TestStoreRepository_Cursor(t *testing.T) {
	infra := SetupTestInfra(t)

	ctx := context.Background()
	repo := store.NewRepository(infra.RedisClient, nil)

	cursor, err := repo.GetCursor(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, cursor, "unseen user reads as empty cursor")

	require.NoError(t, repo.SetCursor(ctx, "alice", "31415926535"))

	cursor, err = repo.GetCursor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "31415926535", cursor)

	// Overwrites are unconditional; the caller owns monotonicity.
	require.NoError(t, repo.SetCursor(ctx, "alice", "31415926599"))
	cursor, err = repo.GetCursor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "31415926599", cursor)

	// Other users are unaffected.
	cursor, err = repo.GetCursor(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, cursor)
}

func TestStoreRepository_FetchedFlags(t *testing.T) {
	infra := SetupTestInfra(t)

	ctx := context.Background()
	repo := store.NewRepository(infra.RedisClient, nil)

	shas := []string{"aaa111", "bbb222", "ccc333"}

	flags, err := repo.HasFetched(ctx, shas)
	require.NoError(t, err)
	for _, sha := range shas {
		assert.False(t, flags[sha])
	}

	require.NoError(t, repo.MarkFetched(ctx, []string{"aaa111", "ccc333"}))

	flags, err = repo.HasFetched(ctx, shas)
	require.NoError(t, err)
	assert.True(t, flags["aaa111"])
	assert.False(t, flags["bbb222"])
	assert.True(t, flags["ccc333"])

	// Marking again is a no-op, never an error.
	require.NoError(t, repo.MarkFetched(ctx, []string{"aaa111"}))
	flags, err = repo.HasFetched(ctx, shas)
	require.NoError(t, err)
	assert.True(t, flags["aaa111"])
}

func TestStoreRepository_SentFlagsIndependentOfFetched(t *testing.T) {
	infra := SetupTestInfra(t)

	ctx := context.Background()
	repo := store.NewRepository(infra.RedisClient, nil)

	require.NoError(t, repo.MarkFetched(ctx, []string{"ddd444"}))

	sent, err := repo.HasSent(ctx, []string{"ddd444"})
	require.NoError(t, err)
	assert.False(t, sent["ddd444"], "fetched flag must not imply sent")

	require.NoError(t, repo.MarkSent(ctx, []string{"ddd444"}))

	sent, err = repo.HasSent(ctx, []string{"ddd444"})
	require.NoError(t, err)
	assert.True(t, sent["ddd444"])
}

func TestStoreRepository_EmptyBatches(t *testing.T) {
	infra := SetupTestInfra(t)

	ctx := context.Background()
	repo := store.NewRepository(infra.RedisClient, nil)

	flags, err := repo.HasFetched(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, flags)

	require.NoError(t, repo.MarkSent(ctx, nil))
}

func TestStoreRepository_ContextCancellation(t *testing.T) {
	infra := SetupTestInfra(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := store.NewRepository(infra.RedisClient, nil)

	_, err := repo.GetCursor(ctx, "alice")
	assert.Error(t, err)

	err = repo.MarkFetched(ctx, []string{"eee555"})
	assert.Error(t, err)
}
