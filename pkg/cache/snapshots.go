package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/careview/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// Snapshots keeps the last successfully fetched raw CSV payload per dataset
// so a restarting replica can serve data before its first poll completes.
// Writes and reads are best-effort; failures never fail a refresh.
type Snapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshots(client *redis.Client, ttl time.Duration) *Snapshots {
	return &Snapshots{client: client, ttl: ttl}
}

func key(kind string) string {
	return fmt.Sprintf("dataset:raw:%s", kind)
}

func (s *Snapshots) Put(ctx context.Context, kind, payload string) error {
	if err := s.client.Set(ctx, key(kind), payload, s.ttl).Err(); err != nil {
		logger.WithDataset(kind).WithError(err).Warn("Failed to cache snapshot")
		return err
	}
	return nil
}

// Get returns the cached payload, or "" with no error when none exists.
func (s *Snapshots) Get(ctx context.Context, kind string) (string, error) {
	payload, err := s.client.Get(ctx, key(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return payload, nil
}
