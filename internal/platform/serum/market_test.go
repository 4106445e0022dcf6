package serum

import (
	"testing"

	"github.com/shopspring/decimal"
)

// testMarket mirrors the BTC/USDC market parameters.
func testMarket() MarketMeta {
	return MarketMeta{
		Name:          "BTC/USDC",
		Version:       3,
		BaseLotSize:   100,
		QuoteLotSize:  10,
		BaseDecimals:  6,
		QuoteDecimals: 6,
		TickSize:      decimal.RequireFromString("0.1"),
		MinOrderSize:  decimal.RequireFromString("0.0001"),
	}
}

func TestDecimalPlaces(t *testing.T) {
	m := testMarket()
	if got := m.PriceDecimalPlaces(); got != 1 {
		t.Errorf("PriceDecimalPlaces() = %d, want 1", got)
	}
	if got := m.SizeDecimalPlaces(); got != 4 {
		t.Errorf("SizeDecimalPlaces() = %d, want 4", got)
	}
}

func TestPriceLotsToDecimal(t *testing.T) {
	m := testMarket()
	if got := m.PriceLotsToDecimal(74685); got.String() != "7468.5" {
		t.Errorf("PriceLotsToDecimal(74685) = %s, want 7468.5", got)
	}
	if got := m.PriceLotsToDecimal(0); !got.IsZero() {
		t.Errorf("PriceLotsToDecimal(0) = %s, want 0", got)
	}
}

func TestBaseSizeLotsToDecimal(t *testing.T) {
	m := testMarket()
	if got := m.BaseSizeLotsToDecimal(25); got.String() != "0.0025" {
		t.Errorf("BaseSizeLotsToDecimal(25) = %s, want 0.0025", got)
	}
}

func TestFillSize(t *testing.T) {
	m := testMarket()

	// Ask-side fill: base quantity is the paid side.
	askFill := Event{Flags: EventFlags{Fill: true}, NativeQtyPaid: 2500, NativeQtyReleased: 18671250}
	if got := m.FillSize(askFill); got.String() != "0.0025" {
		t.Errorf("ask fill size = %s, want 0.0025", got)
	}

	// Bid-side fill: base quantity is the released side.
	bidFill := Event{Flags: EventFlags{Fill: true, Bid: true}, NativeQtyPaid: 18671250, NativeQtyReleased: 2500}
	if got := m.FillSize(bidFill); got.String() != "0.0025" {
		t.Errorf("bid fill size = %s, want 0.0025", got)
	}
}

func TestFillPrice(t *testing.T) {
	m := testMarket()

	// 0.0025 base at 7468.5: quote before fees = 18671250 native units.
	const quote = 18671250
	const base = 2500
	const fee = 3734

	cases := []struct {
		name string
		ev   Event
	}{
		{
			// Maker seller received the quote plus a rebate.
			"ask maker",
			Event{Flags: EventFlags{Fill: true, Maker: true}, NativeQtyPaid: base, NativeQtyReleased: quote + fee, NativeFeeOrRebate: fee},
		},
		{
			// Taker seller received the quote minus the fee.
			"ask taker",
			Event{Flags: EventFlags{Fill: true}, NativeQtyPaid: base, NativeQtyReleased: quote - fee, NativeFeeOrRebate: fee},
		},
		{
			// Maker buyer paid the quote minus a rebate.
			"bid maker",
			Event{Flags: EventFlags{Fill: true, Bid: true, Maker: true}, NativeQtyPaid: quote - fee, NativeQtyReleased: base, NativeFeeOrRebate: fee},
		},
		{
			// Taker buyer paid the quote plus the fee.
			"bid taker",
			Event{Flags: EventFlags{Fill: true, Bid: true}, NativeQtyPaid: quote + fee, NativeQtyReleased: base, NativeFeeOrRebate: fee},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.FillPrice(tc.ev); got.String() != "7468.5" {
				t.Errorf("fill price = %s, want 7468.5", got)
			}
		})
	}
}

func TestQuoteNativeToDecimal(t *testing.T) {
	m := testMarket()
	if got := m.QuoteNativeToDecimal(3734); got.String() != "0.003734" {
		t.Errorf("QuoteNativeToDecimal(3734) = %s, want 0.003734", got)
	}
}

func TestRemainingSizeFromNative(t *testing.T) {
	m := testMarket()

	// Ask-side out event releases the base quantity directly.
	askOut := Event{Flags: EventFlags{Out: true}, NativeQtyReleased: 1200}
	if got := m.RemainingSizeFromNative(askOut); got.String() != "0.0012" {
		t.Errorf("ask remaining = %s, want 0.0012", got)
	}

	// Bid-side out event releases the locked quote; convert back through the
	// order's price lots. 0.002 base at 7468.5 locks 14937000 native quote.
	bidOut := Event{Flags: EventFlags{Out: true, Bid: true}, NativeQtyReleased: 14937000}
	key := leafKey(74685, 1)
	copy(bidOut.RawOrderID[:], key[:])
	if got := m.RemainingSizeFromNative(bidOut); got.String() != "0.002" {
		t.Errorf("bid remaining = %s, want 0.002", got)
	}

	// Zero price lots cannot be converted.
	zeroPrice := Event{Flags: EventFlags{Out: true, Bid: true}, NativeQtyReleased: 100}
	if got := m.RemainingSizeFromNative(zeroPrice); !got.IsZero() {
		t.Errorf("zero-price remaining = %s, want 0", got)
	}
}

func TestDecodeMarketState(t *testing.T) {
	buf := make([]byte, marketStateMinSpan)
	buf[accountPadding] = 0x01 // initialized
	for i := marketStateEventQueueOffset; i < marketStateEventQueueOffset+32; i++ {
		buf[i] = 0x11
	}
	for i := marketStateBidsOffset; i < marketStateBidsOffset+32; i++ {
		buf[i] = 0x22
	}
	for i := marketStateAsksOffset; i < marketStateAsksOffset+32; i++ {
		buf[i] = 0x33
	}
	buf[marketStateBaseLotSizeOffset] = 100
	buf[marketStateQuoteLotSizeOffset] = 10

	state, err := DecodeMarketState(buf)
	if err != nil {
		t.Fatalf("DecodeMarketState: %v", err)
	}
	if state.BaseLotSize != 100 || state.QuoteLotSize != 10 {
		t.Errorf("lot sizes = %d/%d, want 100/10", state.BaseLotSize, state.QuoteLotSize)
	}

	var key [32]byte
	for i := range key {
		key[i] = 0x22
	}
	if state.BidsAddress != PublicKeyString(key) {
		t.Errorf("bids address = %s", state.BidsAddress)
	}
	if state.BidsAddress == state.AsksAddress || state.AsksAddress == state.EventQueueAddress {
		t.Error("expected distinct account addresses")
	}
}

func TestDecodeMarketStateTruncated(t *testing.T) {
	if _, err := DecodeMarketState(make([]byte, 100)); err == nil {
		t.Error("expected error for truncated market state")
	}
}
