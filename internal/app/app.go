// Package app wires configuration into the running service: the per-market
// feed and producer pipelines, the WebSocket hub, the HTTP server and the
// optional Redis fan-out.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	rediscache "github.com/tardis-dev/serum-vial/internal/cache/redis"
	"github.com/tardis-dev/serum-vial/internal/config"
	"github.com/tardis-dev/serum-vial/internal/domain"
	"github.com/tardis-dev/serum-vial/internal/feed"
	"github.com/tardis-dev/serum-vial/internal/platform/serum"
	"github.com/tardis-dev/serum-vial/internal/server"
	"github.com/tardis-dev/serum-vial/internal/server/ws"
)

// shutdownTimeout bounds the graceful HTTP shutdown on exit.
const shutdownTimeout = 10 * time.Second

// App is the composed serum-vial service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	redisClient *rediscache.Client
}

// New creates the application shell. Dependencies are wired lazily in Run.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Close releases long-lived resources.
func (a *App) Close() {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
}

// Run wires all components and blocks until ctx is canceled or a component
// fails.
func (a *App) Run(ctx context.Context) error {
	extra := make([]serum.MarketMeta, 0, len(a.cfg.CustomMarkets))
	for _, m := range a.cfg.CustomMarkets {
		extra = append(extra, m.Meta())
	}
	registry := serum.NewRegistry(extra)

	markets := make([]serum.MarketMeta, 0, len(a.cfg.Markets))
	for _, name := range a.cfg.Markets {
		meta, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		markets = append(markets, meta)
	}

	var (
		bus   domain.SignalBus
		cache domain.SnapshotCache
	)
	if a.cfg.Redis.Enabled {
		client, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       a.cfg.Redis.Addr,
			Password:   a.cfg.Redis.Password,
			DB:         a.cfg.Redis.DB,
			PoolSize:   a.cfg.Redis.PoolSize,
			MaxRetries: a.cfg.Redis.MaxRetries,
			TLSEnabled: a.cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fmt.Errorf("app: redis: %w", err)
		}
		a.redisClient = client
		bus = rediscache.NewSignalBus(client)
		cache = rediscache.NewSnapshotCache(client)
		a.logger.Info("redis fan-out enabled", "addr", a.cfg.Redis.Addr)
	}

	hub := ws.NewHub(a.logger, a.cfg.Markets)
	srv := server.NewServer(server.Config{Port: a.cfg.Server.Port}, registry, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	for _, market := range markets {
		rpcFeed, err := feed.NewRPCClient(feed.RPCClientOptions{
			NodeEndpoint:   a.cfg.Solana.NodeEndpoint,
			WSEndpointPort: a.cfg.Solana.WSEndpointPort,
			Commitment:     a.cfg.Solana.Commitment,
			Market:         market,
			Logger:         a.logger,
		})
		if err != nil {
			return fmt.Errorf("app: feed for %s: %w", market.Name, err)
		}

		producer := NewProducer(ProducerOptions{
			Market:          market,
			Logger:          a.logger,
			Feed:            rpcFeed,
			Hub:             hub,
			Bus:             bus,
			Cache:           cache,
			ValidateL3Diffs: a.cfg.ValidateL3Diffs,
		})

		g.Go(func() error {
			return rpcFeed.Run(ctx)
		})
		g.Go(func() error {
			return producer.Run(ctx)
		})

		a.logger.Info("market pipeline started", "market", market.Name)
	}

	return g.Wait()
}
