package app

import (
	"context"
	"log/slog"

	"github.com/tardis-dev/serum-vial/internal/domain"
	"github.com/tardis-dev/serum-vial/internal/feed"
	"github.com/tardis-dev/serum-vial/internal/mapper"
	"github.com/tardis-dev/serum-vial/internal/platform/serum"
	"github.com/tardis-dev/serum-vial/internal/server/ws"
)

// Producer drives one market's pipeline: it consumes slot-coalesced account
// notifications from the RPC feed, runs them through the data mapper and
// publishes the resulting messages to the hub and the optional Redis fan-out.
type Producer struct {
	market serum.MarketMeta
	logger *slog.Logger

	feed   *feed.RPCClient
	mapper *mapper.DataMapper
	hub    *ws.Hub
	bus    domain.SignalBus
	cache  domain.SnapshotCache

	partitioned bool
}

// ProducerOptions wires one market pipeline. Bus and Cache are optional.
type ProducerOptions struct {
	Market          serum.MarketMeta
	Logger          *slog.Logger
	Feed            *feed.RPCClient
	Hub             *ws.Hub
	Bus             domain.SignalBus
	Cache           domain.SnapshotCache
	ValidateL3Diffs bool
}

// NewProducer builds the per-market pipeline.
func NewProducer(opts ProducerOptions) *Producer {
	p := &Producer{
		market: opts.Market,
		logger: opts.Logger.With("component", "producer", "market", opts.Market.Name),
		feed:   opts.Feed,
		hub:    opts.Hub,
		bus:    opts.Bus,
		cache:  opts.Cache,
	}
	p.mapper = mapper.New(mapper.Options{
		Market:          opts.Market,
		Logger:          opts.Logger,
		ValidateL3Diffs: opts.ValidateL3Diffs,
		OnPartition: func(string) {
			p.partitioned = true
		},
	})
	return p
}

// Run consumes feed notifications until ctx is canceled. Decode errors and
// detected partitions reset the mapper and restart the feed connection, so
// the next cycle begins from a fresh snapshot.
func (p *Producer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-p.feed.Notifications():
			if n.Reset {
				p.logger.Info("feed reset, dropping derived state")
				p.mapper.Reset()
				continue
			}
			p.process(ctx, n)
		}
	}
}

func (p *Producer) process(ctx context.Context, n domain.AccountsNotification) {
	p.partitioned = false

	envelopes, err := p.mapper.Map(n.Accounts, n.Slot)
	if err != nil {
		p.logger.Error("failed to map accounts notification", "slot", n.Slot, "error", err)
		p.restart()
		return
	}

	for _, env := range envelopes {
		p.publish(ctx, env)
	}

	if p.partitioned {
		p.restart()
	}
}

func (p *Producer) restart() {
	p.mapper.Reset()
	p.feed.Restart()
	p.partitioned = false
}

func (p *Producer) publish(ctx context.Context, env domain.MessageEnvelope) {
	if err := p.hub.Publish(ctx, env); err != nil {
		return
	}

	topic := string(env.Type) + "/" + env.Market

	if p.bus != nil && env.Publish {
		if err := p.bus.Publish(ctx, topic, env.Payload); err != nil {
			p.logger.Warn("signal bus publish failed", "topic", topic, "error", err)
		}
	}

	if p.cache != nil && isSnapshotType(env.Type) {
		if err := p.cache.Put(ctx, env.Market, env.Type, env.Payload); err != nil {
			p.logger.Warn("snapshot cache update failed", "topic", topic, "error", err)
		}
	}
}

func isSnapshotType(t domain.MessageType) bool {
	switch t {
	case domain.TypeL3Snapshot, domain.TypeL2Snapshot, domain.TypeQuote, domain.TypeRecentTrades:
		return true
	}
	return false
}
