package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	_, ok, err := c.GetScores(ctx, id, 1)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache should miss")

	want := scoring.SubmissionScores{TotalScore: 350, MaxPossibleScore: 500, AverageScore: 3.5, ScorePercentage: 70}
	require.NoError(t, c.SetScores(ctx, id, 1, want))

	got, ok, err := c.GetScores(ctx, id, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, *got)
}

func TestRedisCacheKeyedOnRevision(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, c.SetScores(ctx, id, 1, scoring.SubmissionScores{TotalScore: 10}))

	_, ok, err := c.GetScores(ctx, id, 2)
	require.NoError(t, err)
	assert.False(t, ok, "a newer revision must not hit an older entry")
}

func TestRedisCacheTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, c.SetScores(ctx, id, 3, scoring.SubmissionScores{TotalScore: 1}))
	assert.Equal(t, time.Minute, mr.TTL(scoresKey(id, 3)))

	mr.FastForward(2 * time.Minute)
	_, ok, err := c.GetScores(ctx, id, 3)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire")
}

func TestRedisCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	id := uuid.New()
	other := uuid.New()

	require.NoError(t, c.SetScores(ctx, id, 1, scoring.SubmissionScores{}))
	require.NoError(t, c.SetScores(ctx, id, 2, scoring.SubmissionScores{}))
	require.NoError(t, c.SetScores(ctx, other, 1, scoring.SubmissionScores{}))

	require.NoError(t, c.Invalidate(ctx, id))

	assert.False(t, mr.Exists(scoresKey(id, 1)))
	assert.False(t, mr.Exists(scoresKey(id, 2)))
	assert.True(t, mr.Exists(scoresKey(other, 1)), "other submissions stay cached")
}

func TestRedisCacheCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	id := uuid.New()
	require.NoError(t, mr.Set(scoresKey(id, 1), "not-json"))

	_, _, err := c.GetScores(context.Background(), id, 1)
	assert.Error(t, err)
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.SetScores(ctx, uuid.New(), 1, scoring.SubmissionScores{}))
	_, ok, err := c.GetScores(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, uuid.New()))
}
