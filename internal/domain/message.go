// Package domain defines the core types shared across the serum-vial
// pipeline: normalized data messages, the message envelope produced by the
// mapping engine, raw account notifications consumed from the RPC feed, and
// the interfaces implemented by infrastructure adapters.
package domain

import "time"

// Side is the resting side of an order ("buy" for bids, "sell" for asks).
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MessageType identifies a normalized data message on the wire.
type MessageType string

const (
	TypeL3Snapshot   MessageType = "l3snapshot"
	TypeOpen         MessageType = "open"
	TypeFill         MessageType = "fill"
	TypeChange       MessageType = "change"
	TypeDone         MessageType = "done"
	TypeL2Snapshot   MessageType = "l2snapshot"
	TypeL2Update     MessageType = "l2update"
	TypeQuote        MessageType = "quote"
	TypeTrade        MessageType = "trade"
	TypeRecentTrades MessageType = "recent_trades"

	TypeError        MessageType = "error"
	TypeSubscribed   MessageType = "subscribed"
	TypeUnsubscribed MessageType = "unsubscribed"
)

// Channel is a subscription channel exposed by the pub/sub server. Each
// channel "unpacks" to a fixed set of message types.
type Channel string

const (
	ChannelLevel1 Channel = "level1"
	ChannelLevel2 Channel = "level2"
	ChannelLevel3 Channel = "level3"
	ChannelTrades Channel = "trades"
)

// Channels lists every valid subscription channel.
var Channels = []Channel{ChannelLevel1, ChannelLevel2, ChannelLevel3, ChannelTrades}

// MessageTypesPerChannel maps a subscription channel to the message types
// published on it.
var MessageTypesPerChannel = map[Channel][]MessageType{
	ChannelTrades: {TypeRecentTrades, TypeTrade},
	ChannelLevel1: {TypeQuote},
	ChannelLevel2: {TypeL2Snapshot, TypeL2Update},
	ChannelLevel3: {TypeL3Snapshot, TypeOpen, TypeFill, TypeChange, TypeDone},
}

// Meta carries the envelope fields shared by every data message payload.
// Version identifies the on-chain program's binary layout revision.
type Meta struct {
	Type      MessageType `json:"type"`
	Market    string      `json:"market"`
	Version   uint8       `json:"version"`
	Slot      uint64      `json:"slot"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderItem is one resting order as serialized in L3 messages. Price and size
// are fixed-precision decimal strings (precision is per market).
type OrderItem struct {
	OrderID        string `json:"orderId"`
	ClientID       string `json:"clientId,omitempty"`
	Side           Side   `json:"side"`
	Price          string `json:"price"`
	Size           string `json:"size"`
	OpenOrders     string `json:"openOrders"`
	OpenOrdersSlot uint8  `json:"openOrdersSlot"`
	FeeTier        uint8  `json:"feeTier"`
}

// L3Snapshot is the full per-order book for one market.
type L3Snapshot struct {
	Meta
	Asks []OrderItem `json:"asks"`
	Bids []OrderItem `json:"bids"`
}

// Open announces an order newly observed resting on the book.
type Open struct {
	Meta
	OrderItem
}

// Change announces a size change of a resting order that is not explained by
// fills in the same pass. Size is the new resting size.
type Change struct {
	Meta
	OrderItem
}

// Fill is a single match event for one side of a trade. FeeCost is negative
// for makers (rebate) and positive for takers.
type Fill struct {
	Meta
	OrderItem
	Maker   bool   `json:"maker"`
	FeeCost string `json:"feeCost"`
}

// DoneReason classifies why an order left the book.
type DoneReason string

const (
	DoneFilled   DoneReason = "filled"
	DoneCanceled DoneReason = "canceled"
)

// Done announces that no more messages will be published for an order.
// SizeRemaining is set only when the reason is "canceled".
type Done struct {
	Meta
	OrderID        string     `json:"orderId"`
	ClientID       string     `json:"clientId,omitempty"`
	Side           Side       `json:"side"`
	Reason         DoneReason `json:"reason"`
	SizeRemaining  string     `json:"sizeRemaining,omitempty"`
	OpenOrders     string     `json:"openOrders"`
	OpenOrdersSlot uint8      `json:"openOrdersSlot"`
	FeeTier        uint8      `json:"feeTier"`
}

// PriceLevel is a [price, size] pair serialized as fixed-precision decimal
// strings. A size of "0" in an l2update marks a removed level.
type PriceLevel [2]string

// Price returns the price component of the level.
func (l PriceLevel) Price() string { return l[0] }

// Size returns the aggregate size component of the level.
func (l PriceLevel) Size() string { return l[1] }

// L2 is an aggregated price-level book message, either a full snapshot
// (type "l2snapshot") or a delta against the previous snapshot ("l2update").
type L2 struct {
	Meta
	Asks []PriceLevel `json:"asks"`
	Bids []PriceLevel `json:"bids"`
}

// Quote is the L1 best bid/offer. A nil level means that side of the book is
// empty.
type Quote struct {
	Meta
	BestAsk *PriceLevel `json:"bestAsk"`
	BestBid *PriceLevel `json:"bestBid"`
}

// Trade is a matched trade derived from a taker fill. Side is the liquidity
// taker side.
type Trade struct {
	Meta
	ID    string `json:"id"`
	Side  Side   `json:"side"`
	Price string `json:"price"`
	Size  string `json:"size"`
}

// RecentTrades is a rolling snapshot of the most recent trades for a market.
type RecentTrades struct {
	Meta
	Trades []Trade `json:"trades"`
}

// MessageEnvelope is the unit emitted by the mapping engine towards the
// pub/sub boundary. Payload holds the JSON-serialized data message. Envelopes
// with Publish == false update subscriber-side caches (late-subscriber
// snapshot replay) without being broadcast to live subscribers.
type MessageEnvelope struct {
	Type      MessageType
	Market    string
	Slot      uint64
	Publish   bool
	Payload   []byte
	Timestamp time.Time
}
