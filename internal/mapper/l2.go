package mapper

import "github.com/shopspring/decimal"

// level is one aggregated price level.
type level struct {
	price decimal.Decimal
	size  decimal.Decimal
}

// aggregateLevels collapses a price-ordered side of per-order entries into
// price levels, preserving the side's price priority order.
func aggregateLevels(orders []Order) []level {
	var levels []level
	for i := range orders {
		if n := len(levels); n > 0 && levels[n-1].price.Equal(orders[i].Price) {
			levels[n-1].size = levels[n-1].size.Add(orders[i].Size)
			continue
		}
		levels = append(levels, level{price: orders[i].Price, size: orders[i].Size})
	}
	return levels
}

// diffLevels computes the delta turning prev into next. Both inputs are
// sorted in the side's priority order (descending prices for bids). Removed
// levels appear in the delta with size zero.
func diffLevels(prev, next []level, descending bool) []level {
	before := func(a, b decimal.Decimal) bool {
		if descending {
			return a.GreaterThan(b)
		}
		return a.LessThan(b)
	}

	var changes []level
	i, j := 0, 0
	for i < len(prev) && j < len(next) {
		switch {
		case prev[i].price.Equal(next[j].price):
			if !prev[i].size.Equal(next[j].size) {
				changes = append(changes, next[j])
			}
			i++
			j++
		case before(next[j].price, prev[i].price):
			changes = append(changes, next[j])
			j++
		default:
			changes = append(changes, level{price: prev[i].price, size: decimal.Zero})
			i++
		}
	}
	for ; j < len(next); j++ {
		changes = append(changes, next[j])
	}
	for ; i < len(prev); i++ {
		changes = append(changes, level{price: prev[i].price, size: decimal.Zero})
	}
	return changes
}

func firstLevel(levels []level) *level {
	if len(levels) == 0 {
		return nil
	}
	l := levels[0]
	return &l
}

func levelsEquivalent(a, b *level) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.price.Equal(b.price) && a.size.Equal(b.size)
}
