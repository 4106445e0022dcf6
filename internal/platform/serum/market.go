// Package serum decodes the Serum DEX on-chain account layouts (order book
// slabs and the event queue ring buffer) and converts lot/native quantities
// into exact decimal prices and sizes.
package serum

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MarketMeta describes one Serum market: addresses, lot sizes and token
// decimals needed to convert on-chain quantities into human units, and the
// layout revision of the owning program.
type MarketMeta struct {
	Name          string
	Address       string
	ProgramID     string
	Version       uint8
	BaseLotSize   uint64
	QuoteLotSize  uint64
	BaseDecimals  uint8
	QuoteDecimals uint8
	TickSize      decimal.Decimal
	MinOrderSize  decimal.Decimal
	Deprecated    bool
}

// PriceDecimalPlaces returns the number of decimal places used when
// serializing prices, derived from the market tick size.
func (m MarketMeta) PriceDecimalPlaces() int32 {
	return decimalPlaces(m.TickSize)
}

// SizeDecimalPlaces returns the number of decimal places used when
// serializing sizes, derived from the market minimum order size.
func (m MarketMeta) SizeDecimalPlaces() int32 {
	return decimalPlaces(m.MinOrderSize)
}

// decimalPlaces counts the fractional digits of d (e.g. 0.001 -> 3, 10 -> 0).
func decimalPlaces(d decimal.Decimal) int32 {
	if e := d.Exponent(); e < 0 {
		return -e
	}
	return 0
}

func (m MarketMeta) baseMultiplier() *big.Int  { return pow10(m.BaseDecimals) }
func (m MarketMeta) quoteMultiplier() *big.Int { return pow10(m.QuoteDecimals) }

// PriceLotsToDecimal converts a price expressed in price lots (the upper 64
// bits of an order id) into a decimal price at the market's price precision.
func (m MarketMeta) PriceLotsToDecimal(lots uint64) decimal.Decimal {
	num := new(big.Int).Mul(u64Big(lots), u64Big(m.QuoteLotSize))
	num.Mul(num, m.baseMultiplier())
	den := new(big.Int).Mul(u64Big(m.BaseLotSize), m.quoteMultiplier())
	return divToDecimal(num, den, m.PriceDecimalPlaces())
}

// BaseSizeLotsToDecimal converts a quantity in base lots into a decimal size
// at the market's size precision.
func (m MarketMeta) BaseSizeLotsToDecimal(lots uint64) decimal.Decimal {
	num := new(big.Int).Mul(u64Big(lots), u64Big(m.BaseLotSize))
	return divToDecimal(num, m.baseMultiplier(), m.SizeDecimalPlaces())
}

// BaseNativeToDecimal converts a native base-token quantity into a decimal
// size at the market's size precision.
func (m MarketMeta) BaseNativeToDecimal(native uint64) decimal.Decimal {
	return divToDecimal(u64Big(native), m.baseMultiplier(), m.SizeDecimalPlaces())
}

// QuoteNativeToDecimal converts a native quote-token quantity (e.g. a fee or
// rebate) into a decimal amount at the quote token's full precision.
func (m MarketMeta) QuoteNativeToDecimal(native uint64) decimal.Decimal {
	return divToDecimal(u64Big(native), m.quoteMultiplier(), int32(m.QuoteDecimals))
}

// FillSize returns the base size of a fill event at the market's size
// precision. For bids the base quantity is the released side of the event,
// for asks it is the paid side.
func (m MarketMeta) FillSize(ev Event) decimal.Decimal {
	native := ev.NativeQtyPaid
	if ev.Flags.Bid {
		native = ev.NativeQtyReleased
	}
	return divToDecimal(u64Big(native), m.baseMultiplier(), m.SizeDecimalPlaces())
}

// FillPrice returns the per-unit price of a fill event at the market's price
// precision. The native quote quantity carries the fee or rebate, so it is
// backed out first: a buyer's paid quantity excludes the maker rebate and
// includes the taker fee; a seller's released quantity is the mirror image.
func (m MarketMeta) FillPrice(ev Event) decimal.Decimal {
	fee := u64Big(ev.NativeFeeOrRebate)
	beforeFees := new(big.Int)
	var baseNative uint64

	if ev.Flags.Bid {
		beforeFees.SetUint64(ev.NativeQtyPaid)
		baseNative = ev.NativeQtyReleased
		if ev.Flags.Maker {
			beforeFees.Add(beforeFees, fee)
		} else {
			beforeFees.Sub(beforeFees, fee)
		}
	} else {
		beforeFees.SetUint64(ev.NativeQtyReleased)
		baseNative = ev.NativeQtyPaid
		if ev.Flags.Maker {
			beforeFees.Sub(beforeFees, fee)
		} else {
			beforeFees.Add(beforeFees, fee)
		}
	}

	num := new(big.Int).Mul(beforeFees, m.baseMultiplier())
	den := new(big.Int).Mul(m.quoteMultiplier(), u64Big(baseNative))
	return divToDecimal(num, den, m.PriceDecimalPlaces())
}

// RemainingSizeFromNative derives the base size still outstanding for an
// order from the native quantity released by an "out" event. For asks the
// released quantity is already in base units; for bids it is in quote units
// and is converted back through the order's price lots.
func (m MarketMeta) RemainingSizeFromNative(ev Event) decimal.Decimal {
	if !ev.Flags.Bid {
		return m.BaseNativeToDecimal(ev.NativeQtyReleased)
	}

	priceLots := ev.PriceLots()
	if priceLots == 0 {
		return decimal.Zero.Round(m.SizeDecimalPlaces())
	}

	// releasedQuote = priceLots * baseLots * quoteLotSize
	num := new(big.Int).Mul(u64Big(ev.NativeQtyReleased), u64Big(m.BaseLotSize))
	den := new(big.Int).Mul(u64Big(priceLots), u64Big(m.QuoteLotSize))
	den.Mul(den, m.baseMultiplier())
	return divToDecimal(num, den, m.SizeDecimalPlaces())
}
