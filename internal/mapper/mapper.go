// Package mapper turns raw Serum account snapshots into the normalized,
// ordered stream of data messages: per-order (L3) diffs and fills derived
// from the event queue, aggregated L2 updates, L1 quotes and trades.
package mapper

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tardis-dev/serum-vial/internal/domain"
	"github.com/tardis-dev/serum-vial/internal/platform/serum"
)

// Options configures a DataMapper.
type Options struct {
	Market serum.MarketMeta
	Logger *slog.Logger

	// ValidateL3Diffs maintains a shadow book from the emitted L3 diffs and
	// compares it against each decoded snapshot.
	ValidateL3Diffs bool

	// OnPartition is invoked when the mapper detects an inconsistency that
	// requires a full reset (crossed book, shadow book mismatch). The callback
	// runs synchronously inside Map.
	OnPartition func(reason string)
}

// DataMapper holds the per-market mapping state. It is not safe for
// concurrent use; each market runs its own mapper on a single goroutine.
type DataMapper struct {
	market      serum.MarketMeta
	logger      *slog.Logger
	validate    bool
	onPartition func(reason string)

	pricePlaces int32
	sizePlaces  int32

	initialized bool
	bidsSeen    bool
	asksSeen    bool

	seqInitialized bool
	lastSeenSeqNum uint64

	bids []Order
	asks []Order

	l2Bids  []level
	l2Asks  []level
	bestBid *level
	bestAsk *level

	trades    *tradeRing
	validator *bookValidator
}

// New builds a DataMapper for one market.
func New(opts Options) *DataMapper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &DataMapper{
		market:      opts.Market,
		logger:      logger.With("component", "mapper", "market", opts.Market.Name),
		validate:    opts.ValidateL3Diffs,
		onPartition: opts.OnPartition,
		pricePlaces: opts.Market.PriceDecimalPlaces(),
		sizePlaces:  opts.Market.SizeDecimalPlaces(),
		trades:      newTradeRing(recentTradesCapacity),
	}
	if m.validate {
		m.validator = newBookValidator()
	}
	return m
}

// Reset drops all derived state. The next notification starts a fresh
// initialization cycle (snapshot decode, silent event queue sync).
func (m *DataMapper) Reset() {
	m.initialized = false
	m.bidsSeen = false
	m.asksSeen = false
	m.seqInitialized = false
	m.lastSeenSeqNum = 0
	m.bids = nil
	m.asks = nil
	m.l2Bids = nil
	m.l2Asks = nil
	m.bestBid = nil
	m.bestAsk = nil
	m.trades = newTradeRing(recentTradesCapacity)
	if m.validate {
		m.validator = newBookValidator()
	}
}

type entryKind int

const (
	entryOpen entryKind = iota
	entryFill
	entryChange
	entryDone
)

// l3Entry is one pending L3 diff message plus the exact decimal values the
// shadow book validator replays.
type l3Entry struct {
	kind      entryKind
	orderID   string
	side      domain.Side
	fromEvent bool
	maker     bool
	price     decimal.Decimal
	size      decimal.Decimal
	msg       any
	trade     *domain.Trade
}

// makerFillInfo accumulates the maker fills seen for one order during a pass.
type makerFillInfo struct {
	total      decimal.Decimal
	wasResting bool
	first      *domain.Fill
}

type pass struct {
	slot    uint64
	ts      time.Time
	entries []l3Entry

	fills          map[string]decimal.Decimal
	makerFills     map[string]*makerFillInfo
	makerFillOrder []string
	opened         map[string]bool
}

func newPass(slot uint64, ts time.Time) *pass {
	return &pass{
		slot:       slot,
		ts:         ts,
		fills:      make(map[string]decimal.Decimal),
		makerFills: make(map[string]*makerFillInfo),
		opened:     make(map[string]bool),
	}
}

func (p *pass) makerFillsFor(orderID string) decimal.Decimal {
	if info, ok := p.makerFills[orderID]; ok {
		return info.total
	}
	return decimal.Zero
}

// insertEntry places e before the first event-derived entry carrying the same
// order id, so that an open or change precedes the fills and dones it
// explains. Entries without a matching event are appended.
func (p *pass) insertEntry(e l3Entry) {
	for i := range p.entries {
		if p.entries[i].fromEvent && p.entries[i].orderID == e.orderID {
			p.entries = append(p.entries, l3Entry{})
			copy(p.entries[i+1:], p.entries[i:])
			p.entries[i] = e
			return
		}
	}
	p.entries = append(p.entries, e)
}

// Map processes one slot-coalesced accounts notification and returns the
// data messages it produces, in publication order. A non-nil error means the
// buffers could not be decoded and the caller should reset and resubscribe.
func (m *DataMapper) Map(accounts domain.AccountsData, slot uint64) ([]domain.MessageEnvelope, error) {
	ts := time.Now().UTC()

	if !m.initialized {
		return m.mapInitial(accounts, slot, ts)
	}

	p := newPass(slot, ts)

	// Event queue first: fills and dones are derived from the queue and the
	// book diffs below are interpreted relative to them.
	if accounts.EventQueue != nil {
		if err := m.collectEvents(accounts.EventQueue, p); err != nil {
			return nil, err
		}
	}

	booksChanged := false
	if accounts.Asks != nil {
		next, err := decodeSide(m.market, accounts.Asks, domain.SideSell)
		if err != nil {
			return nil, err
		}
		if m.diffSide(&m.asks, next, p) {
			booksChanged = true
		}
	}
	if accounts.Bids != nil {
		next, err := decodeSide(m.market, accounts.Bids, domain.SideBuy)
		if err != nil {
			return nil, err
		}
		if m.diffSide(&m.bids, next, p) {
			booksChanged = true
		}
	}

	m.synthesizeOpens(p)

	envelopes, err := m.assembleL3(p)
	if err != nil {
		return nil, err
	}

	if m.validate {
		m.validator.replay(p.entries)
		m.runValidation(accounts)
	}

	if accounts.Bids != nil || accounts.Asks != nil {
		tail, crossed, err := m.mapAggregates(p, booksChanged)
		if err != nil {
			return nil, err
		}
		if crossed {
			return envelopes, nil
		}
		envelopes = append(envelopes, tail...)
	}

	return envelopes, nil
}

// mapInitial accumulates account buffers until both book sides have been
// seen, then emits the initial snapshots. The event queue sequence number is
// recorded silently so the first diff pass only reports new events.
func (m *DataMapper) mapInitial(accounts domain.AccountsData, slot uint64, ts time.Time) ([]domain.MessageEnvelope, error) {
	if accounts.EventQueue != nil {
		q, err := serum.DecodeEventQueue(accounts.EventQueue)
		if err != nil {
			return nil, err
		}
		m.lastSeenSeqNum = q.Header.SeqNum
		m.seqInitialized = true
	}
	if accounts.Asks != nil {
		next, err := decodeSide(m.market, accounts.Asks, domain.SideSell)
		if err != nil {
			return nil, err
		}
		m.asks = next
		m.asksSeen = true
	}
	if accounts.Bids != nil {
		next, err := decodeSide(m.market, accounts.Bids, domain.SideBuy)
		if err != nil {
			return nil, err
		}
		m.bids = next
		m.bidsSeen = true
	}

	if !m.bidsSeen || !m.asksSeen {
		return nil, nil
	}

	m.initialized = true
	m.l2Bids = aggregateLevels(m.bids)
	m.l2Asks = aggregateLevels(m.asks)
	m.bestBid = firstLevel(m.l2Bids)
	m.bestAsk = firstLevel(m.l2Asks)
	if m.validate {
		m.validator.seed(m.bids, m.asks)
	}

	m.logger.Info("order book initialized",
		"slot", slot, "bids", len(m.bids), "asks", len(m.asks))

	var envelopes []domain.MessageEnvelope
	l3 := domain.L3Snapshot{
		Meta: m.meta(domain.TypeL3Snapshot, slot, ts),
		Asks: m.orderItems(m.asks),
		Bids: m.orderItems(m.bids),
	}
	env, err := m.envelope(domain.TypeL3Snapshot, true, slot, ts, l3)
	if err != nil {
		return nil, err
	}
	envelopes = append(envelopes, env)

	l2 := domain.L2{
		Meta: m.meta(domain.TypeL2Snapshot, slot, ts),
		Asks: m.priceLevels(m.l2Asks),
		Bids: m.priceLevels(m.l2Bids),
	}
	env, err = m.envelope(domain.TypeL2Snapshot, true, slot, ts, l2)
	if err != nil {
		return nil, err
	}
	envelopes = append(envelopes, env)

	quote := domain.Quote{
		Meta:    m.meta(domain.TypeQuote, slot, ts),
		BestAsk: m.levelPtr(m.bestAsk),
		BestBid: m.levelPtr(m.bestBid),
	}
	env, err = m.envelope(domain.TypeQuote, true, slot, ts, quote)
	if err != nil {
		return nil, err
	}
	envelopes = append(envelopes, env)

	return envelopes, nil
}

// collectEvents walks the event queue ring buffer from oldest new event to
// newest and records the fill and done entries they produce.
func (m *DataMapper) collectEvents(buf []byte, p *pass) error {
	q, err := serum.DecodeEventQueue(buf)
	if err != nil {
		return err
	}

	seq := q.Header.SeqNum
	if !m.seqInitialized {
		m.lastSeenSeqNum = seq
		m.seqInitialized = true
		return nil
	}
	if seq < m.lastSeenSeqNum {
		// The sequence number only moves forward; a regression means the
		// queue account was reallocated under us.
		m.signalPartition(fmt.Sprintf("event queue sequence regressed from %d to %d", m.lastSeenSeqNum, seq))
		m.lastSeenSeqNum = seq
		return nil
	}

	newEvents := seq - m.lastSeenSeqNum
	m.lastSeenSeqNum = seq

	allocLen := uint64(q.AllocLen())
	if allocLen == 0 {
		return nil
	}
	if newEvents > allocLen-1 {
		// More events than ring slots since the last update: the oldest ones
		// were overwritten and only the retained window can be recovered.
		m.logger.Warn("event queue overflow, events dropped",
			"new_events", newEvents, "alloc_len", allocLen)
		newEvents = allocLen - 1
	}

	head := uint64(q.Header.Head)
	count := uint64(q.Header.Count)
	for i := newEvents; i >= 1; i-- {
		index := int((head + count + allocLen - i) % allocLen)
		ev, err := q.EventAt(index)
		if err != nil {
			return err
		}
		m.collectEvent(ev, p)
	}
	return nil
}

func (m *DataMapper) collectEvent(ev serum.Event, p *pass) {
	switch {
	case ev.Flags.Fill:
		m.collectFill(ev, p)
	case ev.NativeQtyPaid == 0:
		m.collectDone(ev, p)
	}
}

func (m *DataMapper) collectFill(ev serum.Event, p *pass) {
	orderID := ev.OrderID()
	side := ev.Side()
	price := m.market.FillPrice(ev)
	size := m.market.FillSize(ev)

	feeCost := m.market.QuoteNativeToDecimal(ev.NativeFeeOrRebate)
	if ev.Flags.Maker {
		feeCost = feeCost.Neg()
	}

	fill := &domain.Fill{
		Meta: m.meta(domain.TypeFill, p.slot, p.ts),
		OrderItem: domain.OrderItem{
			OrderID:        orderID,
			ClientID:       clientIDString(ev.ClientOrderID),
			Side:           side,
			Price:          m.fmtPrice(price),
			Size:           m.fmtSize(size),
			OpenOrders:     serum.PublicKeyString(ev.OpenOrders),
			OpenOrdersSlot: ev.OpenOrdersSlot,
			FeeTier:        ev.FeeTier,
		},
		Maker:   ev.Flags.Maker,
		FeeCost: feeCost.String(),
	}

	p.fills[orderID] = p.fills[orderID].Add(size)

	entry := l3Entry{
		kind:      entryFill,
		orderID:   orderID,
		side:      side,
		fromEvent: true,
		maker:     ev.Flags.Maker,
		price:     price,
		size:      size,
		msg:       fill,
	}

	if ev.Flags.Maker {
		info, ok := p.makerFills[orderID]
		if !ok {
			info = &makerFillInfo{
				wasResting: m.findResting(orderID, side) != nil,
				first:      fill,
			}
			p.makerFills[orderID] = info
			p.makerFillOrder = append(p.makerFillOrder, orderID)
		}
		info.total = info.total.Add(size)
	} else {
		// A taker fill is the matched trade; the maker counterpart event
		// mirrors it on the resting side.
		entry.trade = &domain.Trade{
			Meta:  m.meta(domain.TypeTrade, p.slot, p.ts),
			ID:    orderID,
			Side:  side,
			Price: fill.Price,
			Size:  fill.Size,
		}
	}

	p.entries = append(p.entries, entry)
}

func (m *DataMapper) collectDone(ev serum.Event, p *pass) {
	orderID := ev.OrderID()
	side := ev.Side()
	filled := p.fills[orderID]
	resting := m.findResting(orderID, side)

	reason := domain.DoneCanceled
	switch {
	case resting != nil && filled.Sign() > 0 && filled.GreaterThanOrEqual(resting.Size):
		reason = domain.DoneFilled
	case resting == nil && filled.Sign() > 0:
		// Never observed resting but fully matched within this pass (taker
		// order or same-slot maker).
		reason = domain.DoneFilled
	}

	done := &domain.Done{
		Meta:           m.meta(domain.TypeDone, p.slot, p.ts),
		OrderID:        orderID,
		ClientID:       clientIDString(ev.ClientOrderID),
		Side:           side,
		Reason:         reason,
		OpenOrders:     serum.PublicKeyString(ev.OpenOrders),
		OpenOrdersSlot: ev.OpenOrdersSlot,
		FeeTier:        ev.FeeTier,
	}
	if reason == domain.DoneCanceled {
		done.SizeRemaining = m.fmtSize(m.market.RemainingSizeFromNative(ev))
	}

	p.entries = append(p.entries, l3Entry{
		kind:      entryDone,
		orderID:   orderID,
		side:      side,
		fromEvent: true,
		msg:       done,
	})
}

// diffSide replaces the stored side with the freshly decoded snapshot and
// records open and change entries for orders that appeared or resized in a
// way the pass's maker fills do not explain. Returns whether the side
// actually changed.
func (m *DataMapper) diffSide(current *[]Order, next []Order, p *pass) bool {
	changed := !sidesEqual(*current, next)

	prev := make(map[string]*Order, len(*current))
	for i := range *current {
		prev[(*current)[i].ID] = &(*current)[i]
	}

	for i := range next {
		o := &next[i]
		before, existed := prev[o.ID]
		if existed {
			if before.Size.Equal(o.Size) {
				continue
			}
			delta := before.Size.Sub(o.Size)
			if delta.Equal(p.makerFillsFor(o.ID)) {
				// Shrinkage fully explained by this pass's maker fills.
				continue
			}
			change := &domain.Change{
				Meta:      m.meta(domain.TypeChange, p.slot, p.ts),
				OrderItem: m.orderItem(*o),
			}
			p.insertEntry(l3Entry{
				kind:    entryChange,
				orderID: o.ID,
				side:    o.Side,
				price:   o.Price,
				size:    o.Size,
				msg:     change,
			})
			continue
		}

		// New resting order. If it was partially filled as a maker in the
		// same slot, report the size it was placed with.
		openSize := o.Size.Add(p.makerFillsFor(o.ID))
		item := m.orderItem(*o)
		item.Size = m.fmtSize(openSize)
		open := &domain.Open{
			Meta:      m.meta(domain.TypeOpen, p.slot, p.ts),
			OrderItem: item,
		}
		p.opened[o.ID] = true
		p.insertEntry(l3Entry{
			kind:    entryOpen,
			orderID: o.ID,
			side:    o.Side,
			price:   o.Price,
			size:    openSize,
			msg:     open,
		})
	}

	*current = next
	return changed
}

// synthesizeOpens emits an open for every maker fill whose order was never
// observed resting: it was placed and fully matched between two snapshots, so
// the book diff alone would leave its fills unexplained.
func (m *DataMapper) synthesizeOpens(p *pass) {
	for _, orderID := range p.makerFillOrder {
		info := p.makerFills[orderID]
		if p.opened[orderID] || info.wasResting {
			continue
		}
		if m.findResting(orderID, info.first.Side) != nil {
			continue
		}

		item := info.first.OrderItem
		item.Size = m.fmtSize(info.total)
		open := &domain.Open{
			Meta:      m.meta(domain.TypeOpen, p.slot, p.ts),
			OrderItem: item,
		}
		p.opened[orderID] = true
		p.insertEntry(l3Entry{
			kind:    entryOpen,
			orderID: orderID,
			side:    info.first.Side,
			price:   decimal.RequireFromString(info.first.Price),
			size:    info.total,
			msg:     open,
		})
	}
}

// assembleL3 serializes the pass's L3 entries in order, interleaving trade
// and recent_trades messages right after each taker fill.
func (m *DataMapper) assembleL3(p *pass) ([]domain.MessageEnvelope, error) {
	if len(p.entries) == 0 {
		return nil, nil
	}

	envelopes := make([]domain.MessageEnvelope, 0, len(p.entries))
	for _, e := range p.entries {
		env, err := m.envelope(entryMessageType(e), true, p.slot, p.ts, e.msg)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)

		if e.trade == nil {
			continue
		}
		m.trades.push(*e.trade)

		env, err = m.envelope(domain.TypeTrade, true, p.slot, p.ts, e.trade)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)

		recent := domain.RecentTrades{
			Meta:   m.meta(domain.TypeRecentTrades, p.slot, p.ts),
			Trades: m.trades.items(),
		}
		env, err = m.envelope(domain.TypeRecentTrades, false, p.slot, p.ts, recent)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

// mapAggregates derives the L2 delta, the refreshed L2/L3 snapshots and the
// quote after the book sides were replaced. A crossed book aborts aggregate
// publication and signals a partition.
func (m *DataMapper) mapAggregates(p *pass, booksChanged bool) ([]domain.MessageEnvelope, bool, error) {
	nextBids := aggregateLevels(m.bids)
	nextAsks := aggregateLevels(m.asks)
	nextBestBid := firstLevel(nextBids)
	nextBestAsk := firstLevel(nextAsks)

	if nextBestBid != nil && nextBestAsk != nil && nextBestBid.price.GreaterThanOrEqual(nextBestAsk.price) {
		m.signalPartition(fmt.Sprintf("crossed order book: best bid %s >= best ask %s at slot %d",
			m.fmtPrice(nextBestBid.price), m.fmtPrice(nextBestAsk.price), p.slot))
		return nil, true, nil
	}

	var envelopes []domain.MessageEnvelope

	bidChanges := diffLevels(m.l2Bids, nextBids, true)
	askChanges := diffLevels(m.l2Asks, nextAsks, false)
	m.l2Bids = nextBids
	m.l2Asks = nextAsks

	if len(bidChanges) > 0 || len(askChanges) > 0 {
		update := domain.L2{
			Meta: m.meta(domain.TypeL2Update, p.slot, p.ts),
			Asks: m.priceLevels(askChanges),
			Bids: m.priceLevels(bidChanges),
		}
		env, err := m.envelope(domain.TypeL2Update, true, p.slot, p.ts, update)
		if err != nil {
			return nil, false, err
		}
		envelopes = append(envelopes, env)

		snapshot := domain.L2{
			Meta: m.meta(domain.TypeL2Snapshot, p.slot, p.ts),
			Asks: m.priceLevels(m.l2Asks),
			Bids: m.priceLevels(m.l2Bids),
		}
		env, err = m.envelope(domain.TypeL2Snapshot, false, p.slot, p.ts, snapshot)
		if err != nil {
			return nil, false, err
		}
		envelopes = append(envelopes, env)
	}

	if !levelsEquivalent(m.bestBid, nextBestBid) || !levelsEquivalent(m.bestAsk, nextBestAsk) {
		m.bestBid = nextBestBid
		m.bestAsk = nextBestAsk
		quote := domain.Quote{
			Meta:    m.meta(domain.TypeQuote, p.slot, p.ts),
			BestAsk: m.levelPtr(nextBestAsk),
			BestBid: m.levelPtr(nextBestBid),
		}
		env, err := m.envelope(domain.TypeQuote, true, p.slot, p.ts, quote)
		if err != nil {
			return nil, false, err
		}
		envelopes = append(envelopes, env)
	}

	if booksChanged {
		l3 := domain.L3Snapshot{
			Meta: m.meta(domain.TypeL3Snapshot, p.slot, p.ts),
			Asks: m.orderItems(m.asks),
			Bids: m.orderItems(m.bids),
		}
		env, err := m.envelope(domain.TypeL3Snapshot, false, p.slot, p.ts, l3)
		if err != nil {
			return nil, false, err
		}
		envelopes = append(envelopes, env)
	}

	return envelopes, false, nil
}

// runValidation compares the shadow book against the freshly decoded sides.
// Only sides updated in this pass are compared; a side whose account did not
// arrive yet may legitimately lag behind the replayed fills.
func (m *DataMapper) runValidation(accounts domain.AccountsData) {
	if accounts.Bids != nil {
		if diff := m.validator.compare(domain.SideBuy, m.bids); diff != "" {
			m.signalPartition("l3 diff validation failed for bids: " + diff)
			m.validator.seed(m.bids, m.asks)
			return
		}
	}
	if accounts.Asks != nil {
		if diff := m.validator.compare(domain.SideSell, m.asks); diff != "" {
			m.signalPartition("l3 diff validation failed for asks: " + diff)
			m.validator.seed(m.bids, m.asks)
		}
	}
	if orderID := m.validator.takeOrphanFill(); orderID != "" {
		m.logger.Error("maker fill without preceding open", "order_id", orderID)
	}
}

func (m *DataMapper) findResting(orderID string, side domain.Side) *Order {
	orders := m.asks
	if side == domain.SideBuy {
		orders = m.bids
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i]
		}
	}
	return nil
}

func (m *DataMapper) signalPartition(reason string) {
	m.logger.Error("partition detected", "reason", reason)
	if m.onPartition != nil {
		m.onPartition(reason)
	}
}

func (m *DataMapper) meta(t domain.MessageType, slot uint64, ts time.Time) domain.Meta {
	return domain.Meta{
		Type:      t,
		Market:    m.market.Name,
		Version:   m.market.Version,
		Slot:      slot,
		Timestamp: ts,
	}
}

func (m *DataMapper) envelope(t domain.MessageType, publish bool, slot uint64, ts time.Time, msg any) (domain.MessageEnvelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return domain.MessageEnvelope{}, fmt.Errorf("serializing %s message: %w", t, err)
	}
	return domain.MessageEnvelope{
		Type:      t,
		Market:    m.market.Name,
		Slot:      slot,
		Publish:   publish,
		Payload:   payload,
		Timestamp: ts,
	}, nil
}

func (m *DataMapper) orderItem(o Order) domain.OrderItem {
	return domain.OrderItem{
		OrderID:        o.ID,
		ClientID:       o.ClientID,
		Side:           o.Side,
		Price:          m.fmtPrice(o.Price),
		Size:           m.fmtSize(o.Size),
		OpenOrders:     o.OpenOrders,
		OpenOrdersSlot: o.OpenOrdersSlot,
		FeeTier:        o.FeeTier,
	}
}

func (m *DataMapper) orderItems(orders []Order) []domain.OrderItem {
	items := make([]domain.OrderItem, len(orders))
	for i, o := range orders {
		items[i] = m.orderItem(o)
	}
	return items
}

func (m *DataMapper) priceLevels(levels []level) []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = domain.PriceLevel{m.fmtPrice(l.price), m.fmtSize(l.size)}
	}
	return out
}

func (m *DataMapper) levelPtr(l *level) *domain.PriceLevel {
	if l == nil {
		return nil
	}
	pl := domain.PriceLevel{m.fmtPrice(l.price), m.fmtSize(l.size)}
	return &pl
}

func (m *DataMapper) fmtPrice(d decimal.Decimal) string {
	return d.StringFixed(m.pricePlaces)
}

func (m *DataMapper) fmtSize(d decimal.Decimal) string {
	return d.StringFixed(m.sizePlaces)
}

func clientIDString(clientOrderID uint64) string {
	if clientOrderID == 0 {
		return ""
	}
	return strconv.FormatUint(clientOrderID, 10)
}

func entryMessageType(e l3Entry) domain.MessageType {
	switch e.kind {
	case entryOpen:
		return domain.TypeOpen
	case entryFill:
		return domain.TypeFill
	case entryChange:
		return domain.TypeChange
	default:
		return domain.TypeDone
	}
}
