package serum

import (
	"encoding/binary"
	"fmt"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

// Market state account offsets shared by the v1 and v2 layouts (the fields
// past the lot sizes differ between revisions and are not needed here).
const (
	marketStateRequestQueueOffset = 221
	marketStateEventQueueOffset   = 253
	marketStateBidsOffset         = 285
	marketStateAsksOffset         = 317
	marketStateBaseLotSizeOffset  = 349
	marketStateQuoteLotSizeOffset = 357
	marketStateMinSpan            = marketStateQuoteLotSizeOffset + 8 + accountTailSpan
)

// MarketState is the subset of a decoded Serum market account needed to
// subscribe to the market's order book and event queue accounts.
type MarketState struct {
	RequestQueueAddress string
	EventQueueAddress   string
	BidsAddress         string
	AsksAddress         string
	BaseLotSize         uint64
	QuoteLotSize        uint64
}

// DecodeMarketState decodes a raw market state account buffer.
func DecodeMarketState(data []byte) (MarketState, error) {
	if len(data) < marketStateMinSpan {
		return MarketState{}, fmt.Errorf("market state account (%d bytes): %w", len(data), domain.ErrBufferTooShort)
	}

	flags := decodeAccountFlags(binary.LittleEndian.Uint64(data[accountPadding:]))
	if !flags.Initialized {
		return MarketState{}, fmt.Errorf("market state account flags: %w", domain.ErrInvalidSlab)
	}

	var key [32]byte
	state := MarketState{
		BaseLotSize:  binary.LittleEndian.Uint64(data[marketStateBaseLotSizeOffset:]),
		QuoteLotSize: binary.LittleEndian.Uint64(data[marketStateQuoteLotSizeOffset:]),
	}
	copy(key[:], data[marketStateRequestQueueOffset:])
	state.RequestQueueAddress = PublicKeyString(key)
	copy(key[:], data[marketStateEventQueueOffset:])
	state.EventQueueAddress = PublicKeyString(key)
	copy(key[:], data[marketStateBidsOffset:])
	state.BidsAddress = PublicKeyString(key)
	copy(key[:], data[marketStateAsksOffset:])
	state.AsksAddress = PublicKeyString(key)

	return state, nil
}
