package serum

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tardis-dev/serum-vial/internal/domain"
)

// serumV3ProgramID is the Serum DEX v3 program.
const serumV3ProgramID = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

// builtinMarkets lists well-known Serum v3 markets. Lot sizes and decimals
// mirror the on-chain market state; entries can be overridden or extended via
// configuration.
var builtinMarkets = []MarketMeta{
	{
		Name:          "BTC/USDC",
		Address:       "A8YFbxQYFVqKZaoYJLLUVcQiWP7G2MeEgW5wsAQgMvFw",
		ProgramID:     serumV3ProgramID,
		Version:       3,
		BaseLotSize:   100,
		QuoteLotSize:  10,
		BaseDecimals:  6,
		QuoteDecimals: 6,
		TickSize:      decimal.RequireFromString("0.1"),
		MinOrderSize:  decimal.RequireFromString("0.0001"),
	},
	{
		Name:          "ETH/USDC",
		Address:       "4tSvZvnbyzHXLMTiFonMyxZoHmFqau1XArcRCVHLZ5gX",
		ProgramID:     serumV3ProgramID,
		Version:       3,
		BaseLotSize:   1000,
		QuoteLotSize:  10,
		BaseDecimals:  6,
		QuoteDecimals: 6,
		TickSize:      decimal.RequireFromString("0.01"),
		MinOrderSize:  decimal.RequireFromString("0.001"),
	},
	{
		Name:          "SOL/USDC",
		Address:       "9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT",
		ProgramID:     serumV3ProgramID,
		Version:       3,
		BaseLotSize:   100000000,
		QuoteLotSize:  100,
		BaseDecimals:  9,
		QuoteDecimals: 6,
		TickSize:      decimal.RequireFromString("0.001"),
		MinOrderSize:  decimal.RequireFromString("0.1"),
	},
	{
		Name:          "SRM/USDC",
		Address:       "ByRys5tuUWDgL73G8JBAEfkdFf8JWBzPBDHsBVQ5vbQA",
		ProgramID:     serumV3ProgramID,
		Version:       3,
		BaseLotSize:   100000,
		QuoteLotSize:  100,
		BaseDecimals:  6,
		QuoteDecimals: 6,
		TickSize:      decimal.RequireFromString("0.001"),
		MinOrderSize:  decimal.RequireFromString("0.1"),
	},
}

// Registry resolves market names to their metadata.
type Registry struct {
	byName map[string]MarketMeta
}

// NewRegistry builds a registry from the built-in market table plus any extra
// markets (e.g. from configuration). Extras override built-ins by name.
func NewRegistry(extra []MarketMeta) *Registry {
	r := &Registry{byName: make(map[string]MarketMeta, len(builtinMarkets)+len(extra))}
	for _, m := range builtinMarkets {
		r.byName[m.Name] = m
	}
	for _, m := range extra {
		r.byName[m.Name] = m
	}
	return r
}

// Lookup returns the metadata for the named market.
func (r *Registry) Lookup(name string) (MarketMeta, error) {
	m, ok := r.byName[name]
	if !ok {
		return MarketMeta{}, fmt.Errorf("market %q: %w", name, domain.ErrUnknownMarket)
	}
	return m, nil
}

// List returns all known markets sorted by name.
func (r *Registry) List() []MarketMeta {
	out := make([]MarketMeta, 0, len(r.byName))
	for _, m := range r.byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
