package redis

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRunQueueFIFO(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewRunQueueRepo(client)
	repo.key = "test:queue:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, repo.key) })

	_, err := repo.Pop(ctx)
	assert.ErrorIs(t, err, repository.ErrQueueEmpty)

	first := entity.RunRequest{ID: "a", Query: "Computer Science Internship", Location: "Australia"}
	second := entity.RunRequest{ID: "b", Query: "Data Internship", Location: "Sydney", Force: true}
	require.NoError(t, repo.Push(ctx, first))
	require.NoError(t, repo.Push(ctx, second))

	size, err := repo.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	got, err := repo.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, "Australia", got.Location)

	got, err = repo.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
	assert.True(t, got.Force)
}

func TestRecentRuns(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewRecentRunRepo(client)
	key := "test|" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, repo.generateKey(key)) })

	ok, err := repo.MarkIfAbsent(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkIfAbsent(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim of a live key must fail")

	require.NoError(t, repo.MarkSubmitted(ctx, key, time.Minute))
	ttl, err := client.TTL(ctx, repo.generateKey(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.Remove(ctx, key))
	ok, err = repo.MarkIfAbsent(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarkIfAbsentConcurrent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewRecentRunRepo(client)
	key := "test|" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, repo.generateKey(key)) })

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := repo.MarkIfAbsent(ctx, key, time.Minute); err == nil && ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}

func TestIncrementRetry(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	repo := NewRecentRunRepo(client)
	runID := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, retryPrefix+runID) })

	n, err := repo.IncrementRetry(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.IncrementRetry(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, err := client.TTL(ctx, retryPrefix+runID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
}
