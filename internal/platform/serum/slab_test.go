package serum

import (
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

const (
	testFlagsBids       = 0x21
	testFlagsAsks       = 0x41
	testFlagsEventQueue = 0x11
)

// leafSpec describes one resting order for synthetic slab buffers.
type leafSpec struct {
	priceLots uint64
	seq       uint64
	qty       uint64
	clientID  uint64
	ownerSlot byte
	feeTier   byte
	owner     byte // repeated to fill the owner pubkey
}

func leafKey(priceLots, seq uint64) [16]byte {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[0:8], seq)
	binary.LittleEndian.PutUint64(key[8:16], priceLots)
	return key
}

func encodeLeafNode(spec leafSpec) [slabNodeSpan]byte {
	var node [slabNodeSpan]byte
	binary.LittleEndian.PutUint32(node[0:4], nodeLeaf)
	body := node[slabNodeBodyStart:]
	body[0] = spec.ownerSlot
	body[1] = spec.feeTier
	key := leafKey(spec.priceLots, spec.seq)
	copy(body[4:20], key[:])
	for i := 20; i < 52; i++ {
		body[i] = spec.owner
	}
	binary.LittleEndian.PutUint64(body[52:60], spec.qty)
	binary.LittleEndian.PutUint64(body[60:68], spec.clientID)
	return node
}

func encodeInnerNode(left, right uint32) [slabNodeSpan]byte {
	var node [slabNodeSpan]byte
	binary.LittleEndian.PutUint32(node[0:4], nodeInner)
	body := node[slabNodeBodyStart:]
	binary.LittleEndian.PutUint32(body[20:24], left)
	binary.LittleEndian.PutUint32(body[24:28], right)
	return node
}

// buildTree appends nodes for the given leaves (sorted ascending by key) and
// returns the root index.
func buildTree(nodes *[][slabNodeSpan]byte, leaves []leafSpec) uint32 {
	if len(leaves) == 1 {
		*nodes = append(*nodes, encodeLeafNode(leaves[0]))
		return uint32(len(*nodes) - 1)
	}
	mid := len(leaves) / 2
	left := buildTree(nodes, leaves[:mid])
	right := buildTree(nodes, leaves[mid:])
	*nodes = append(*nodes, encodeInnerNode(left, right))
	return uint32(len(*nodes) - 1)
}

// buildSlabAccount assembles a raw order book account buffer. Leaves must be
// sorted ascending by price lots.
func buildSlabAccount(flags uint64, leaves []leafSpec) []byte {
	var nodes [][slabNodeSpan]byte
	var root uint32
	if len(leaves) > 0 {
		root = buildTree(&nodes, leaves)
	}

	buf := make([]byte, orderBookHeaderSpan+len(nodes)*slabNodeSpan+accountTailSpan)
	binary.LittleEndian.PutUint64(buf[accountPadding:], flags)

	h := accountPadding + accountFlagsSpan
	binary.LittleEndian.PutUint32(buf[h:], uint32(len(nodes)))    // bumpIndex
	binary.LittleEndian.PutUint32(buf[h+8:], 0)                   // freeListLen
	binary.LittleEndian.PutUint32(buf[h+16:], 0)                  // freeListHead
	binary.LittleEndian.PutUint32(buf[h+20:], root)               // root
	binary.LittleEndian.PutUint32(buf[h+24:], uint32(len(leaves))) // leafCount

	for i, node := range nodes {
		copy(buf[orderBookHeaderSpan+i*slabNodeSpan:], node[:])
	}
	return buf
}

func collectLeaves(t *testing.T, slab *Slab, descending bool) []LeafNode {
	t.Helper()
	var out []LeafNode
	it := slab.Items(descending)
	for {
		leaf, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, leaf)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	return out
}

func TestDecodeOrderBookSideAscending(t *testing.T) {
	leaves := []leafSpec{
		{priceLots: 100, seq: 3, qty: 10, ownerSlot: 1, feeTier: 2, owner: 0xaa},
		{priceLots: 101, seq: 2, qty: 20, clientID: 42, owner: 0xbb},
		{priceLots: 105, seq: 1, qty: 30, owner: 0xcc},
	}
	slab, err := DecodeOrderBookSide(buildSlabAccount(testFlagsAsks, leaves))
	if err != nil {
		t.Fatalf("DecodeOrderBookSide: %v", err)
	}
	if !slab.Flags.Asks || slab.Flags.Bids {
		t.Errorf("unexpected flags: %+v", slab.Flags)
	}
	if slab.Header.LeafCount != 3 {
		t.Fatalf("leaf count = %d, want 3", slab.Header.LeafCount)
	}

	got := collectLeaves(t, slab, false)
	if len(got) != 3 {
		t.Fatalf("got %d leaves, want 3", len(got))
	}
	for i, want := range []uint64{100, 101, 105} {
		if got[i].PriceLots() != want {
			t.Errorf("leaf %d price lots = %d, want %d", i, got[i].PriceLots(), want)
		}
	}
	if got[0].OwnerSlot != 1 || got[0].FeeTier != 2 || got[0].Quantity != 10 {
		t.Errorf("leaf 0 fields = %+v", got[0])
	}
	if got[1].ClientOrderID != 42 {
		t.Errorf("leaf 1 client order id = %d, want 42", got[1].ClientOrderID)
	}
}

func TestDecodeOrderBookSideDescending(t *testing.T) {
	leaves := []leafSpec{
		{priceLots: 100, seq: 3, qty: 10},
		{priceLots: 101, seq: 2, qty: 20},
		{priceLots: 105, seq: 1, qty: 30},
	}
	slab, err := DecodeOrderBookSide(buildSlabAccount(testFlagsBids, leaves))
	if err != nil {
		t.Fatalf("DecodeOrderBookSide: %v", err)
	}

	got := collectLeaves(t, slab, true)
	for i, want := range []uint64{105, 101, 100} {
		if got[i].PriceLots() != want {
			t.Errorf("leaf %d price lots = %d, want %d", i, got[i].PriceLots(), want)
		}
	}
}

func TestDecodeOrderBookSideEmpty(t *testing.T) {
	slab, err := DecodeOrderBookSide(buildSlabAccount(testFlagsBids, nil))
	if err != nil {
		t.Fatalf("DecodeOrderBookSide: %v", err)
	}
	if got := collectLeaves(t, slab, true); len(got) != 0 {
		t.Errorf("got %d leaves from empty slab", len(got))
	}
}

func TestDecodeOrderBookSideTruncated(t *testing.T) {
	_, err := DecodeOrderBookSide(make([]byte, 10))
	if !errors.Is(err, domain.ErrBufferTooShort) {
		t.Errorf("err = %v, want ErrBufferTooShort", err)
	}
}

func TestDecodeOrderBookSideBadFlags(t *testing.T) {
	buf := buildSlabAccount(0x20, nil) // bids flag without initialized
	if _, err := DecodeOrderBookSide(buf); !errors.Is(err, domain.ErrInvalidSlab) {
		t.Errorf("err = %v, want ErrInvalidSlab", err)
	}
}

func TestDecodeOrderBookSideBumpIndexOverflow(t *testing.T) {
	buf := buildSlabAccount(testFlagsBids, []leafSpec{{priceLots: 1, seq: 1, qty: 1}})
	h := accountPadding + accountFlagsSpan
	binary.LittleEndian.PutUint32(buf[h:], 1000)
	if _, err := DecodeOrderBookSide(buf); !errors.Is(err, domain.ErrInvalidSlab) {
		t.Errorf("err = %v, want ErrInvalidSlab", err)
	}
}

func TestSlabIteratorRejectsFreeNode(t *testing.T) {
	buf := buildSlabAccount(testFlagsBids, []leafSpec{{priceLots: 1, seq: 1, qty: 1}})
	// Overwrite the leaf's tag with a free-node tag.
	binary.LittleEndian.PutUint32(buf[orderBookHeaderSpan:], nodeFree)

	slab, err := DecodeOrderBookSide(buf)
	if err != nil {
		t.Fatalf("DecodeOrderBookSide: %v", err)
	}
	it := slab.Items(false)
	if _, ok := it.Next(); ok {
		t.Fatal("expected no leaf from corrupted slab")
	}
	if !errors.Is(it.Err(), domain.ErrInvalidSlab) {
		t.Errorf("err = %v, want ErrInvalidSlab", it.Err())
	}
}

func TestLeafNodeOrderID(t *testing.T) {
	leaf := LeafNode{Key: leafKey(74685, 7)}
	want := new(big.Int).Lsh(big.NewInt(74685), 64)
	want.Add(want, big.NewInt(7))
	if got := leaf.OrderID(); got != want.String() {
		t.Errorf("OrderID() = %s, want %s", got, want)
	}
	if leaf.PriceLots() != 74685 {
		t.Errorf("PriceLots() = %d, want 74685", leaf.PriceLots())
	}
}
