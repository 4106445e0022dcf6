package serum

import (
	"encoding/binary"
	"fmt"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

const (
	eventQueueHeaderSpan = accountPadding + accountFlagsSpan + 24 // head, count, seqNum (u32 + 4 pad each)
	eventNodeSpan        = 88
)

// Event flag bits.
const (
	eventFlagFill  = 0x01
	eventFlagOut   = 0x02
	eventFlagBid   = 0x04
	eventFlagMaker = 0x08
)

// EventFlags is the decoded flags byte of an event queue node.
type EventFlags struct {
	Fill  bool
	Out   bool
	Bid   bool
	Maker bool
}

// EventQueueHeader is the ring buffer header: head index, live entry count
// and the monotonically increasing sequence number of the next event.
type EventQueueHeader struct {
	Head   uint32
	Count  uint32
	SeqNum uint64
}

// Event is one decoded event queue entry. Quantities are native token
// amounts; OrderID is the 128-bit composite order key in little-endian order.
type Event struct {
	Flags             EventFlags
	OpenOrdersSlot    uint8
	FeeTier           uint8
	NativeQtyReleased uint64
	NativeQtyPaid     uint64
	NativeFeeOrRebate uint64
	RawOrderID        [16]byte
	OpenOrders        [32]byte
	ClientOrderID     uint64
}

// OrderID returns the 128-bit order id as a decimal string.
func (e Event) OrderID() string {
	return u128String(e.RawOrderID)
}

// PriceLots returns the price-in-lots component of the order id.
func (e Event) PriceLots() uint64 {
	return binary.LittleEndian.Uint64(e.RawOrderID[8:16])
}

// Side returns the resting side the event refers to.
func (e Event) Side() domain.Side {
	if e.Flags.Bid {
		return domain.SideBuy
	}
	return domain.SideSell
}

// EventQueue is a decoded event queue account. Nodes are decoded lazily by
// index; the caller computes ring positions from the header.
type EventQueue struct {
	Header EventQueueHeader

	data []byte
}

// DecodeEventQueue decodes the header of a raw event queue account buffer.
func DecodeEventQueue(data []byte) (*EventQueue, error) {
	if len(data) < eventQueueHeaderSpan+accountTailSpan {
		return nil, fmt.Errorf("event queue account (%d bytes): %w", len(data), domain.ErrBufferTooShort)
	}

	flags := decodeAccountFlags(binary.LittleEndian.Uint64(data[accountPadding:]))
	if !flags.Initialized || !flags.EventQueue {
		return nil, fmt.Errorf("account flags: %w", domain.ErrInvalidSlab)
	}

	h := accountPadding + accountFlagsSpan
	header := EventQueueHeader{
		Head:   binary.LittleEndian.Uint32(data[h:]),
		Count:  binary.LittleEndian.Uint32(data[h+8:]),
		SeqNum: uint64(binary.LittleEndian.Uint32(data[h+16:])),
	}

	return &EventQueue{Header: header, data: data}, nil
}

// AllocLen returns the number of node slots allocated in the ring buffer.
func (q *EventQueue) AllocLen() int {
	return (len(q.data) - eventQueueHeaderSpan) / eventNodeSpan
}

// EventAt decodes the event at the given ring buffer slot.
func (q *EventQueue) EventAt(index int) (Event, error) {
	if index < 0 || index >= q.AllocLen() {
		return Event{}, fmt.Errorf("event index %d out of range (alloc %d): %w", index, q.AllocLen(), domain.ErrBufferTooShort)
	}

	off := eventQueueHeaderSpan + index*eventNodeSpan
	node := q.data[off : off+eventNodeSpan]

	flags := node[0]
	ev := Event{
		Flags: EventFlags{
			Fill:  flags&eventFlagFill != 0,
			Out:   flags&eventFlagOut != 0,
			Bid:   flags&eventFlagBid != 0,
			Maker: flags&eventFlagMaker != 0,
		},
		OpenOrdersSlot:    node[1],
		FeeTier:           node[2],
		NativeQtyReleased: binary.LittleEndian.Uint64(node[8:]),
		NativeQtyPaid:     binary.LittleEndian.Uint64(node[16:]),
		NativeFeeOrRebate: binary.LittleEndian.Uint64(node[24:]),
		ClientOrderID:     binary.LittleEndian.Uint64(node[80:]),
	}
	copy(ev.RawOrderID[:], node[32:48])
	copy(ev.OpenOrders[:], node[48:80])
	return ev, nil
}
