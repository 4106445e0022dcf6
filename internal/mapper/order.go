package mapper

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tardis-dev/serum-vial/internal/domain"
	"github.com/tardis-dev/serum-vial/internal/platform/serum"
)

// Order is the engine-side representation of one resting order. Price and
// size are exact decimals; they are formatted to the market's fixed precision
// only at serialization time.
type Order struct {
	ID             string
	ClientID       string
	Side           domain.Side
	Price          decimal.Decimal
	Size           decimal.Decimal
	OpenOrders     string
	OpenOrdersSlot uint8
	FeeTier        uint8
}

// decodeSide decodes a bids or asks account buffer into the side's resting
// orders in price priority order (descending for bids, ascending for asks).
func decodeSide(market serum.MarketMeta, data []byte, side domain.Side) ([]Order, error) {
	slab, err := serum.DecodeOrderBookSide(data)
	if err != nil {
		return nil, err
	}

	// A bids buffer notified for the asks account (or vice versa) means the
	// upstream subscription is confused; refuse to diff against it.
	if side == domain.SideBuy && !slab.Flags.Bids {
		return nil, fmt.Errorf("bids account update without bids flag: %w", domain.ErrInvalidSlab)
	}
	if side == domain.SideSell && !slab.Flags.Asks {
		return nil, fmt.Errorf("asks account update without asks flag: %w", domain.ErrInvalidSlab)
	}

	orders := make([]Order, 0, slab.Header.LeafCount)
	it := slab.Items(side == domain.SideBuy)
	for {
		leaf, ok := it.Next()
		if !ok {
			break
		}
		orders = append(orders, orderFromLeaf(market, leaf, side))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func orderFromLeaf(market serum.MarketMeta, leaf serum.LeafNode, side domain.Side) Order {
	clientID := ""
	if leaf.ClientOrderID != 0 {
		clientID = strconv.FormatUint(leaf.ClientOrderID, 10)
	}
	return Order{
		ID:             leaf.OrderID(),
		ClientID:       clientID,
		Side:           side,
		Price:          market.PriceLotsToDecimal(leaf.PriceLots()),
		Size:           market.BaseSizeLotsToDecimal(leaf.Quantity),
		OpenOrders:     serum.PublicKeyString(leaf.Owner),
		OpenOrdersSlot: leaf.OwnerSlot,
		FeeTier:        leaf.FeeTier,
	}
}

// sidesEqual reports whether two side snapshots carry the same orders with
// the same sizes in the same order.
func sidesEqual(a, b []Order) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].Size.Equal(b[i].Size) {
			return false
		}
	}
	return true
}
