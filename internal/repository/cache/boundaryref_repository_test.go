package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lost-server/internal/pkg/guid"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &Redis{client: client, logger: zap.NewNop()}, mr
}

func TestBoundaryRef_IssueResolve(t *testing.T) {
	rdb, _ := setupRedis(t)
	repo := NewBoundaryRefRepository(rdb)
	ctx := context.Background()

	shapeID := guid.New()
	key, err := repo.Issue(ctx, shapeID)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	id, ok, err := repo.Resolve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, shapeID, id)
}

func TestBoundaryRef_UnknownKey(t *testing.T) {
	rdb, _ := setupRedis(t)
	repo := NewBoundaryRefRepository(rdb)

	_, ok, err := repo.Resolve(context.Background(), guid.New().String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoundaryRef_KeyExpires(t *testing.T) {
	rdb, mr := setupRedis(t)
	repo := NewBoundaryRefRepository(rdb)
	ctx := context.Background()

	key, err := repo.Issue(ctx, guid.New())
	require.NoError(t, err)

	mr.FastForward(boundaryRefTTL + time.Minute)

	_, ok, err := repo.Resolve(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoundaryRef_DistinctKeysPerIssue(t *testing.T) {
	rdb, _ := setupRedis(t)
	repo := NewBoundaryRefRepository(rdb)
	ctx := context.Background()

	shapeID := guid.New()
	first, err := repo.Issue(ctx, shapeID)
	require.NoError(t, err)
	second, err := repo.Issue(ctx, shapeID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	for _, key := range []string{first, second} {
		id, ok, rerr := repo.Resolve(ctx, key)
		require.NoError(t, rerr)
		require.True(t, ok)
		assert.Equal(t, shapeID, id)
	}
}

func TestStaticBoundaryRefs(t *testing.T) {
	repo := NewStaticBoundaryRefs()
	ctx := context.Background()

	shapeID := guid.New()
	key, err := repo.Issue(ctx, shapeID)
	require.NoError(t, err)
	assert.Equal(t, shapeID.String(), key)

	id, ok, err := repo.Resolve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, shapeID, id)

	_, ok, err = repo.Resolve(ctx, "not-a-guid")
	require.NoError(t, err)
	assert.False(t, ok)
}
