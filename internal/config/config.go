// Package config defines the top-level configuration for serum-vial and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tardis-dev/serum-vial/internal/platform/serum"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SERUM_VIAL_* environment
// variables.
type Config struct {
	Solana SolanaConfig `toml:"solana"`
	Server ServerConfig `toml:"server"`
	Redis  RedisConfig  `toml:"redis"`

	// Markets lists the market names to serve. Names must resolve against
	// the built-in market table or the custom_markets entries.
	Markets []string `toml:"markets"`

	// CustomMarkets extends or overrides the built-in market table.
	CustomMarkets []MarketConfig `toml:"custom_markets"`

	// ValidateL3Diffs enables the shadow-book consistency check on every
	// order book snapshot. Useful in staging, costs CPU in production.
	ValidateL3Diffs bool `toml:"validate_l3_diffs"`

	LogLevel string `toml:"log_level"`
}

// SolanaConfig holds the RPC node endpoints and commitment level.
type SolanaConfig struct {
	NodeEndpoint   string `toml:"node_endpoint"`
	WSEndpointPort int    `toml:"ws_endpoint_port"`
	Commitment     string `toml:"commitment"`
}

// ServerConfig holds the HTTP/WebSocket server parameters.
type ServerConfig struct {
	Port int `toml:"port"`
}

// RedisConfig holds the optional Redis fan-out parameters. When disabled the
// instance serves WebSocket clients only.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// MarketConfig describes one market in the TOML file.
type MarketConfig struct {
	Name          string `toml:"name"`
	Address       string `toml:"address"`
	ProgramID     string `toml:"program_id"`
	Version       int    `toml:"version"`
	BaseLotSize   int64  `toml:"base_lot_size"`
	QuoteLotSize  int64  `toml:"quote_lot_size"`
	BaseDecimals  int    `toml:"base_decimals"`
	QuoteDecimals int    `toml:"quote_decimals"`
	TickSize      string `toml:"tick_size"`
	MinOrderSize  string `toml:"min_order_size"`
	Deprecated    bool   `toml:"deprecated"`
}

// Meta converts the TOML market entry into market metadata. Validate must
// have passed beforehand.
func (m MarketConfig) Meta() serum.MarketMeta {
	return serum.MarketMeta{
		Name:          m.Name,
		Address:       m.Address,
		ProgramID:     m.ProgramID,
		Version:       uint8(m.Version),
		BaseLotSize:   uint64(m.BaseLotSize),
		QuoteLotSize:  uint64(m.QuoteLotSize),
		BaseDecimals:  uint8(m.BaseDecimals),
		QuoteDecimals: uint8(m.QuoteDecimals),
		TickSize:      decimal.RequireFromString(m.TickSize),
		MinOrderSize:  decimal.RequireFromString(m.MinOrderSize),
		Deprecated:    m.Deprecated,
	}
}

// Defaults returns the built-in configuration used when the TOML file omits
// a value.
func Defaults() Config {
	return Config{
		Solana: SolanaConfig{
			NodeEndpoint: "https://api.mainnet-beta.solana.com",
			Commitment:   "confirmed",
		},
		Server: ServerConfig{
			Port: 8000,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		Markets:  []string{"BTC/USDC", "ETH/USDC", "SOL/USDC", "SRM/USDC"},
		LogLevel: "info",
	}
}

// validCommitments enumerates the accepted Solana commitment levels.
var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Solana.NodeEndpoint == "" {
		errs = append(errs, "solana: node_endpoint must not be empty")
	} else if !strings.HasPrefix(c.Solana.NodeEndpoint, "http://") && !strings.HasPrefix(c.Solana.NodeEndpoint, "https://") {
		errs = append(errs, fmt.Sprintf("solana: node_endpoint must be an http(s) URL, got %q", c.Solana.NodeEndpoint))
	}
	if c.Solana.WSEndpointPort < 0 || c.Solana.WSEndpointPort > 65535 {
		errs = append(errs, fmt.Sprintf("solana: ws_endpoint_port must be 0-65535, got %d", c.Solana.WSEndpointPort))
	}
	if !validCommitments[c.Solana.Commitment] {
		errs = append(errs, fmt.Sprintf("solana: unknown commitment %q (valid: processed, confirmed, finalized)", c.Solana.Commitment))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if len(c.Markets) == 0 {
		errs = append(errs, "markets: at least one market must be configured")
	}

	for i, m := range c.CustomMarkets {
		prefix := fmt.Sprintf("custom_markets[%d]", i)
		if m.Name == "" {
			errs = append(errs, prefix+": name must not be empty")
		}
		if m.Address == "" {
			errs = append(errs, prefix+": address must not be empty")
		}
		if m.ProgramID == "" {
			errs = append(errs, prefix+": program_id must not be empty")
		}
		if m.BaseLotSize <= 0 {
			errs = append(errs, prefix+": base_lot_size must be > 0")
		}
		if m.QuoteLotSize <= 0 {
			errs = append(errs, prefix+": quote_lot_size must be > 0")
		}
		if m.BaseDecimals < 0 || m.BaseDecimals > 18 {
			errs = append(errs, prefix+": base_decimals must be 0-18")
		}
		if m.QuoteDecimals < 0 || m.QuoteDecimals > 18 {
			errs = append(errs, prefix+": quote_decimals must be 0-18")
		}
		if _, err := decimal.NewFromString(m.TickSize); err != nil {
			errs = append(errs, fmt.Sprintf("%s: tick_size %q is not a valid decimal", prefix, m.TickSize))
		}
		if _, err := decimal.NewFromString(m.MinOrderSize); err != nil {
			errs = append(errs, fmt.Sprintf("%s: min_order_size %q is not a valid decimal", prefix, m.MinOrderSize))
		}
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
