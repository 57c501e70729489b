package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingUploadsKey = "uploads:pending"

// UploadRegistry tracks minted object keys that no lesson has claimed yet.
// A nil redis client turns every call into a no-op.
type UploadRegistry struct {
	client *redis.Client
}

func NewUploadRegistry(client *redis.Client) *UploadRegistry {
	return &UploadRegistry{client: client}
}

func (r *UploadRegistry) Track(ctx context.Context, key string, at time.Time) error {
	if r.client == nil {
		return nil
	}
	err := r.client.ZAdd(ctx, pendingUploadsKey, redis.Z{Score: float64(at.Unix()), Member: key}).Err()
	if err != nil {
		return fmt.Errorf("track upload: %w", err)
	}
	return nil
}

func (r *UploadRegistry) Forget(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		members = append(members, key)
	}
	if err := r.client.ZRem(ctx, pendingUploadsKey, members...).Err(); err != nil {
		return fmt.Errorf("forget uploads: %w", err)
	}
	return nil
}

// Stale returns up to limit keys minted before cutoff, oldest first.
func (r *UploadRegistry) Stale(ctx context.Context, cutoff time.Time, limit int64) ([]string, error) {
	if r.client == nil {
		return nil, nil
	}
	keys, err := r.client.ZRangeByScore(ctx, pendingUploadsKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(cutoff.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list stale uploads: %w", err)
	}
	return keys, nil
}
