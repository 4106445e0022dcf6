package mapper

import "github.com/tardis-dev/serum-vial/internal/domain"

// recentTradesCapacity bounds the rolling trade buffer served to late
// subscribers.
const recentTradesCapacity = 100

// tradeRing is a fixed-capacity rolling buffer of the most recent trades,
// newest first.
type tradeRing struct {
	buf []domain.Trade
	max int
}

func newTradeRing(max int) *tradeRing {
	return &tradeRing{max: max}
}

func (r *tradeRing) push(t domain.Trade) {
	r.buf = append(r.buf, domain.Trade{})
	copy(r.buf[1:], r.buf)
	r.buf[0] = t
	if len(r.buf) > r.max {
		r.buf = r.buf[:r.max]
	}
}

// items returns a copy of the buffered trades, newest first.
func (r *tradeRing) items() []domain.Trade {
	out := make([]domain.Trade, len(r.buf))
	copy(out, r.buf)
	return out
}
