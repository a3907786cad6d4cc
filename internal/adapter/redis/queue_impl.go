package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/internship-ingest/internal/entity"
	"github.com/user/internship-ingest/internal/repository"
)

const runQueueKey = "ingest:runs:queue"

// RunQueueRepoImpl implements RunQueueRepository on a Redis list.
type RunQueueRepoImpl struct {
	client *redis.Client
	key    string
}

func NewRunQueueRepo(client *redis.Client) *RunQueueRepoImpl {
	return &RunQueueRepoImpl{client: client, key: runQueueKey}
}

// Push adds a request on the left side of the list.
func (r *RunQueueRepoImpl) Push(ctx context.Context, req entity.RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode run request: %w", err)
	}
	return r.client.LPush(ctx, r.key, payload).Err()
}

// Pop takes the oldest request from the right side of the list.
func (r *RunQueueRepoImpl) Pop(ctx context.Context) (*entity.RunRequest, error) {
	payload, err := r.client.RPop(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}

	var req entity.RunRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("failed to decode run request: %w", err)
	}
	return &req, nil
}

func (r *RunQueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.key).Result()
}
