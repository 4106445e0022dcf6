package domain

import "context"

// SignalBus fans envelopes out to external consumers (e.g. Redis Pub/Sub)
// keyed by "{type}/{market}" topics. It is optional infrastructure; the
// in-process WebSocket hub does not depend on it.
type SignalBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// SnapshotCache stores the latest snapshot payload per market and message
// type so that out-of-process consumers can bootstrap late subscribers.
type SnapshotCache interface {
	Put(ctx context.Context, market string, msgType MessageType, payload []byte) error
	Get(ctx context.Context, market string, msgType MessageType) ([]byte, error)
}
