package mapper

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tardis-dev/serum-vial/internal/domain"
)

// shadowOrder is the validator's view of one resting order, built purely from
// the emitted L3 diff messages.
type shadowOrder struct {
	price decimal.Decimal
	size  decimal.Decimal
}

// bookValidator maintains a shadow book by replaying the emitted L3 diffs and
// compares it against each authoritative snapshot decode. Any divergence
// means the diff stream would desynchronize a downstream consumer.
type bookValidator struct {
	bids map[string]*shadowOrder
	asks map[string]*shadowOrder

	orphanFill string
}

func newBookValidator() *bookValidator {
	return &bookValidator{
		bids: make(map[string]*shadowOrder),
		asks: make(map[string]*shadowOrder),
	}
}

// seed resets the shadow book from authoritative snapshots.
func (v *bookValidator) seed(bids, asks []Order) {
	v.bids = make(map[string]*shadowOrder, len(bids))
	v.asks = make(map[string]*shadowOrder, len(asks))
	for i := range bids {
		v.bids[bids[i].ID] = &shadowOrder{price: bids[i].Price, size: bids[i].Size}
	}
	for i := range asks {
		v.asks[asks[i].ID] = &shadowOrder{price: asks[i].Price, size: asks[i].Size}
	}
	v.orphanFill = ""
}

func (v *bookValidator) sideOrders(side domain.Side) map[string]*shadowOrder {
	if side == domain.SideBuy {
		return v.bids
	}
	return v.asks
}

// replay applies one pass's L3 diff entries to the shadow book. Taker fills
// never touch the book; maker fills reduce the resting size, changes
// overwrite it, dones remove the order.
func (v *bookValidator) replay(entries []l3Entry) {
	for _, e := range entries {
		orders := v.sideOrders(e.side)
		switch e.kind {
		case entryOpen:
			orders[e.orderID] = &shadowOrder{price: e.price, size: e.size}
		case entryFill:
			if !e.maker {
				continue
			}
			o, ok := orders[e.orderID]
			if !ok {
				if v.orphanFill == "" {
					v.orphanFill = e.orderID
				}
				continue
			}
			o.size = o.size.Sub(e.size)
		case entryChange:
			if o, ok := orders[e.orderID]; ok {
				o.size = e.size
			} else {
				orders[e.orderID] = &shadowOrder{price: e.price, size: e.size}
			}
		case entryDone:
			delete(orders, e.orderID)
		}
	}
}

// compare checks one shadow side against the authoritative decode and returns
// a description of the first divergence, or "" when the sides agree.
func (v *bookValidator) compare(side domain.Side, authoritative []Order) string {
	orders := v.sideOrders(side)
	if len(orders) != len(authoritative) {
		return fmt.Sprintf("order count mismatch: shadow %d, snapshot %d", len(orders), len(authoritative))
	}
	for i := range authoritative {
		o := &authoritative[i]
		s, ok := orders[o.ID]
		if !ok {
			return fmt.Sprintf("order %s missing from shadow book", o.ID)
		}
		if !s.price.Equal(o.Price) {
			return fmt.Sprintf("order %s price mismatch: shadow %s, snapshot %s", o.ID, s.price, o.Price)
		}
		if !s.size.Equal(o.Size) {
			return fmt.Sprintf("order %s size mismatch: shadow %s, snapshot %s", o.ID, s.size, o.Size)
		}
	}
	return ""
}

// takeOrphanFill returns and clears the order id of a maker fill that arrived
// without a preceding open, if one was seen.
func (v *bookValidator) takeOrphanFill() string {
	id := v.orphanFill
	v.orphanFill = ""
	return id
}
