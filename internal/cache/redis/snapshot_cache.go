package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tardis-dev/serum-vial/internal/domain"
)

// snapshotTTL bounds how long a cached snapshot outlives its producer. The
// producer refreshes entries far more often on any active market.
const snapshotTTL = 24 * time.Hour

// SnapshotCache implements domain.SnapshotCache on Redis, keyed by message
// type and market.
type SnapshotCache struct {
	client *Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{client: c}
}

func snapshotKey(market string, msgType domain.MessageType) string {
	return fmt.Sprintf("snapshot:%s:%s", msgType, market)
}

// Put stores the latest snapshot payload for a market and message type.
func (sc *SnapshotCache) Put(ctx context.Context, market string, msgType domain.MessageType, payload []byte) error {
	key := snapshotKey(market, msgType)
	if err := sc.client.rdb.Set(ctx, key, payload, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Get returns the latest snapshot payload, or nil when none is cached.
func (sc *SnapshotCache) Get(ctx context.Context, market string, msgType domain.MessageType) ([]byte, error) {
	key := snapshotKey(market, msgType)
	payload, err := sc.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return payload, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
