package redis

import (
	"context"
	"fmt"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

// SignalBus implements domain.SignalBus using Redis Pub/Sub. Topics follow
// the same "{type}/{market}" scheme as the in-process hub, so out-of-process
// consumers can subscribe per message type and market.
type SignalBus struct {
	client *Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{client: c}
}

// Publish sends a raw message payload to a Redis Pub/Sub channel.
func (sb *SignalBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := sb.client.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", topic, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
