package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/changshize/fiction-tiktok/internal/domain"
	"github.com/changshize/fiction-tiktok/internal/repository"
)

var _ repository.StatusCache = (*redisStatusCache)(nil)

const (
	statusKeyPrefix = "task:"

	// Completed snapshots stay around for a day, everything else for an hour.
	defaultTTL   = time.Hour
	completedTTL = 24 * time.Hour
)

type redisStatusCache struct {
	client *goredis.Client
}

// NewStatusCache creates a Redis-backed job status cache.
func NewStatusCache(client *goredis.Client) repository.StatusCache {
	return &redisStatusCache{client: client}
}

func (r *redisStatusCache) SetStatus(ctx context.Context, jobID uuid.UUID, snapshot *domain.JobStatusSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot: %w", err)
	}

	ttl := defaultTTL
	if snapshot.Status == domain.StatusCompleted {
		ttl = completedTTL
	}

	key := statusKeyPrefix + jobID.String()
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set status: %w", err)
	}
	return nil
}

func (r *redisStatusCache) GetStatus(ctx context.Context, jobID uuid.UUID) (*domain.JobStatusSnapshot, error) {
	key := statusKeyPrefix + jobID.String()
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get status: %w", err)
	}

	snapshot := &domain.JobStatusSnapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("redis: unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}

func (r *redisStatusCache) Delete(ctx context.Context, jobID uuid.UUID) error {
	key := statusKeyPrefix + jobID.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: delete status: %w", err)
	}
	return nil
}
