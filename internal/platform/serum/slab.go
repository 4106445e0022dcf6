package serum

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

// Serum account buffers start with a 5-byte "serum" prefix and end with a
// 7-byte "padding" suffix.
const (
	accountPadding    = 5
	accountTailSpan   = 7
	accountFlagsSpan  = 8
	slabHeaderSpan    = 32
	slabNodeSpan      = 72
	slabNodeBodyStart = 4 // u32 tag precedes the 68-byte node body

	orderBookHeaderSpan = accountPadding + accountFlagsSpan + slabHeaderSpan
)

// Slab node tags.
const (
	nodeUninitialized uint32 = iota
	nodeInner
	nodeLeaf
	nodeFree
	nodeLastFree
)

// AccountFlags is the decoded account-flags bitfield common to all Serum
// accounts.
type AccountFlags struct {
	Initialized bool
	Bids        bool
	Asks        bool
	EventQueue  bool
}

func decodeAccountFlags(raw uint64) AccountFlags {
	return AccountFlags{
		Initialized: raw&0x01 != 0,
		EventQueue:  raw&0x10 != 0,
		Bids:        raw&0x20 != 0,
		Asks:        raw&0x40 != 0,
	}
}

// SlabHeader is the fixed header of an order book slab.
type SlabHeader struct {
	BumpIndex    uint32
	FreeListLen  uint32
	FreeListHead uint32
	Root         uint32
	LeafCount    uint32
}

// LeafNode is one resting order stored in a slab. Key is the 128-bit order id
// in little-endian byte order; its upper 64 bits are the price in lots.
type LeafNode struct {
	OwnerSlot     uint8
	FeeTier       uint8
	Key           [16]byte
	Owner         [32]byte
	Quantity      uint64
	ClientOrderID uint64
}

// PriceLots returns the price-in-lots component of the order key.
func (n LeafNode) PriceLots() uint64 {
	return binary.LittleEndian.Uint64(n.Key[8:16])
}

// OrderID returns the full 128-bit order id as a decimal string.
func (n LeafNode) OrderID() string {
	return u128String(n.Key)
}

// u128String renders a little-endian 128-bit value as a decimal string.
func u128String(key [16]byte) string {
	var be [16]byte
	for i := 0; i < 16; i++ {
		be[i] = key[15-i]
	}
	return new(big.Int).SetBytes(be[:]).String()
}

// Slab is a decoded order book side account (bids or asks).
type Slab struct {
	Flags  AccountFlags
	Header SlabHeader

	data []byte
}

// DecodeOrderBookSide decodes a raw bids or asks account buffer. Only the
// header is decoded eagerly; nodes are decoded lazily during iteration.
func DecodeOrderBookSide(data []byte) (*Slab, error) {
	if len(data) < orderBookHeaderSpan+accountTailSpan {
		return nil, fmt.Errorf("order book account (%d bytes): %w", len(data), domain.ErrBufferTooShort)
	}

	flags := decodeAccountFlags(binary.LittleEndian.Uint64(data[accountPadding:]))
	if !flags.Initialized || (!flags.Bids && !flags.Asks) {
		return nil, fmt.Errorf("account flags %#x: %w", data[accountPadding], domain.ErrInvalidSlab)
	}

	h := accountPadding + accountFlagsSpan
	header := SlabHeader{
		BumpIndex:    binary.LittleEndian.Uint32(data[h:]),
		FreeListLen:  binary.LittleEndian.Uint32(data[h+8:]),
		FreeListHead: binary.LittleEndian.Uint32(data[h+16:]),
		Root:         binary.LittleEndian.Uint32(data[h+20:]),
		LeafCount:    binary.LittleEndian.Uint32(data[h+24:]),
	}

	maxNodes := uint32((len(data) - orderBookHeaderSpan - accountTailSpan) / slabNodeSpan)
	if header.BumpIndex > maxNodes {
		return nil, fmt.Errorf("slab bump index %d exceeds %d allocated nodes: %w",
			header.BumpIndex, maxNodes, domain.ErrInvalidSlab)
	}

	return &Slab{Flags: flags, Header: header, data: data}, nil
}

// nodeAt returns the tag and body of the node at the given index.
func (s *Slab) nodeAt(index uint32) (uint32, []byte, error) {
	if index >= s.Header.BumpIndex {
		return 0, nil, fmt.Errorf("slab node index %d out of range: %w", index, domain.ErrInvalidSlab)
	}
	off := orderBookHeaderSpan + int(index)*slabNodeSpan
	node := s.data[off : off+slabNodeSpan]
	return binary.LittleEndian.Uint32(node), node[slabNodeBodyStart:], nil
}

func decodeLeaf(body []byte) LeafNode {
	var leaf LeafNode
	leaf.OwnerSlot = body[0]
	leaf.FeeTier = body[1]
	copy(leaf.Key[:], body[4:20])
	copy(leaf.Owner[:], body[20:52])
	leaf.Quantity = binary.LittleEndian.Uint64(body[52:])
	leaf.ClientOrderID = binary.LittleEndian.Uint64(body[60:])
	return leaf
}

// Items returns a lazy iterator over the slab's resting orders in price
// order: ascending for asks, descending (pass descending=true) for bids.
// The iterator is finite and restartable only by calling Items again.
func (s *Slab) Items(descending bool) *SlabIterator {
	it := &SlabIterator{slab: s, descending: descending}
	if s.Header.LeafCount > 0 {
		it.stack = append(it.stack, s.Header.Root)
	}
	return it
}

// SlabIterator walks the slab's critical-bit tree without materializing the
// whole order list up front.
type SlabIterator struct {
	slab       *Slab
	descending bool
	stack      []uint32
	err        error
}

// Next returns the next leaf in iteration order. It returns false when the
// iteration is exhausted or a malformed node was encountered (check Err).
func (it *SlabIterator) Next() (LeafNode, bool) {
	for len(it.stack) > 0 && it.err == nil {
		index := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		tag, body, err := it.slab.nodeAt(index)
		if err != nil {
			it.err = err
			return LeafNode{}, false
		}

		switch tag {
		case nodeLeaf:
			return decodeLeaf(body), true
		case nodeInner:
			left := binary.LittleEndian.Uint32(body[20:])
			right := binary.LittleEndian.Uint32(body[24:])
			if it.descending {
				it.stack = append(it.stack, left, right)
			} else {
				it.stack = append(it.stack, right, left)
			}
		case nodeUninitialized, nodeFree, nodeLastFree:
			it.err = fmt.Errorf("unexpected slab node tag %d at index %d: %w", tag, index, domain.ErrInvalidSlab)
			return LeafNode{}, false
		default:
			it.err = fmt.Errorf("unknown slab node tag %d at index %d: %w", tag, index, domain.ErrInvalidSlab)
			return LeafNode{}, false
		}
	}
	return LeafNode{}, false
}

// Err reports a decoding error encountered during iteration.
func (it *SlabIterator) Err() error {
	return it.err
}
