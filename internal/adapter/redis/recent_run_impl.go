package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/internship-ingest/pkg/utils"
)

const (
	recentRunPrefix = "ingest:submitted:"
	retryPrefix     = "ingest:retry:"
	retryExpiry     = 24 * time.Hour
)

// RecentRunRepoImpl implements RecentRunRepository with expiring Redis keys.
type RecentRunRepoImpl struct {
	client *redis.Client
}

func NewRecentRunRepo(client *redis.Client) *RecentRunRepoImpl {
	return &RecentRunRepoImpl{client: client}
}

func (r *RecentRunRepoImpl) generateKey(key string) string {
	return recentRunPrefix + utils.HashKey(key)
}

// MarkSubmitted sets the key and its expiry in one SET EX command.
func (r *RecentRunRepoImpl) MarkSubmitted(ctx context.Context, key string, expiry time.Duration) error {
	return r.client.Set(ctx, r.generateKey(key), "1", expiry).Err()
}

// MarkIfAbsent claims the key with SET NX EX and reports whether it was free.
func (r *RecentRunRepoImpl) MarkIfAbsent(ctx context.Context, key string, expiry time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.generateKey(key), "1", expiry).Result()
}

func (r *RecentRunRepoImpl) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.generateKey(key)).Err()
}

// IncrementRetry bumps the retry counter for runID. The counter expires after a day.
func (r *RecentRunRepoImpl) IncrementRetry(ctx context.Context, runID string) (int64, error) {
	key := retryPrefix + runID
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, retryExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
