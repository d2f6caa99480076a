package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

// Cache memoizes computed submission scores. Entries are keyed on the
// submission revision so a consensus or raw score write never serves a stale
// block.
type Cache interface {
	GetScores(ctx context.Context, submissionID uuid.UUID, revision int) (*scoring.SubmissionScores, bool, error)
	SetScores(ctx context.Context, submissionID uuid.UUID, revision int, scores scoring.SubmissionScores) error
	Invalidate(ctx context.Context, submissionID uuid.UUID) error
}

const keyPrefix = "tally:scores:"

func scoresKey(submissionID uuid.UUID, revision int) string {
	return fmt.Sprintf("%s%s:v%d", keyPrefix, submissionID, revision)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *RedisCache) GetScores(ctx context.Context, submissionID uuid.UUID, revision int) (*scoring.SubmissionScores, bool, error) {
	val, err := c.client.Get(ctx, scoresKey(submissionID, revision)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get scores: %w", err)
	}

	var scores scoring.SubmissionScores
	if err := json.Unmarshal([]byte(val), &scores); err != nil {
		return nil, false, fmt.Errorf("decode scores: %w", err)
	}
	return &scores, true, nil
}

func (c *RedisCache) SetScores(ctx context.Context, submissionID uuid.UUID, revision int, scores scoring.SubmissionScores) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := c.client.Set(ctx, scoresKey(submissionID, revision), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set scores: %w", err)
	}
	return nil
}

// Invalidate drops every cached revision of a submission.
func (c *RedisCache) Invalidate(ctx context.Context, submissionID uuid.UUID) error {
	pattern := fmt.Sprintf("%s%s:v*", keyPrefix, submissionID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan scores: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// NopCache never hits. It stands in when Redis is not configured.
type NopCache struct{}

func (NopCache) GetScores(context.Context, uuid.UUID, int) (*scoring.SubmissionScores, bool, error) {
	return nil, false, nil
}

func (NopCache) SetScores(context.Context, uuid.UUID, int, scoring.SubmissionScores) error {
	return nil
}

func (NopCache) Invalidate(context.Context, uuid.UUID) error { return nil }
