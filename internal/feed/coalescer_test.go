package feed

import (
	"log/slog"
	"testing"
	"time"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

type capture struct {
	published []domain.AccountsNotification
}

func (c *capture) publish(n domain.AccountsNotification) {
	c.published = append(c.published, n)
}

func newTestCoalescer() (*SlotCoalescer, *capture) {
	cap := &capture{}
	c := NewSlotCoalescer(slog.Default(), cap.publish)
	return c, cap
}

func TestCoalescerPublishesCompleteSlot(t *testing.T) {
	c, cap := newTestCoalescer()

	c.Update(domain.AccountBids, []byte("b"), 10)
	c.Update(domain.AccountAsks, []byte("a"), 10)
	if len(cap.published) != 0 {
		t.Fatalf("published before slot complete: %d", len(cap.published))
	}

	c.Update(domain.AccountEventQueue, []byte("q"), 10)
	if len(cap.published) != 1 {
		t.Fatalf("published = %d, want 1", len(cap.published))
	}

	n := cap.published[0]
	if n.Slot != 10 || n.Reset {
		t.Errorf("notification = %+v", n)
	}
	if string(n.Accounts.Bids) != "b" || string(n.Accounts.Asks) != "a" || string(n.Accounts.EventQueue) != "q" {
		t.Errorf("accounts = %+v", n.Accounts)
	}

	// A duplicate notification for the published slot is ignored.
	c.Update(domain.AccountBids, []byte("b2"), 10)
	if len(cap.published) != 1 {
		t.Errorf("published = %d after duplicate slot update", len(cap.published))
	}
}

func TestCoalescerNewerSlotFlushesPending(t *testing.T) {
	c, cap := newTestCoalescer()

	c.Update(domain.AccountBids, []byte("b"), 10)
	c.Update(domain.AccountEventQueue, []byte("q"), 11)

	if len(cap.published) != 1 {
		t.Fatalf("published = %d, want 1 (flushed partial slot)", len(cap.published))
	}
	n := cap.published[0]
	if n.Slot != 10 || n.Accounts.Bids == nil || n.Accounts.EventQueue != nil {
		t.Errorf("flushed notification = %+v", n)
	}

	// The newer slot's data is now pending.
	c.Update(domain.AccountBids, []byte("b"), 11)
	c.Update(domain.AccountAsks, []byte("a"), 11)
	if len(cap.published) != 2 {
		t.Fatalf("published = %d, want 2", len(cap.published))
	}
	if cap.published[1].Slot != 11 {
		t.Errorf("second slot = %d, want 11", cap.published[1].Slot)
	}
}

func TestCoalescerStaleSlotIgnored(t *testing.T) {
	c, cap := newTestCoalescer()

	c.Update(domain.AccountBids, []byte("b"), 10)
	c.Update(domain.AccountAsks, []byte("a"), 10)
	c.Update(domain.AccountEventQueue, []byte("q"), 10)

	c.Update(domain.AccountBids, []byte("old"), 9)
	if len(cap.published) != 1 {
		t.Errorf("published = %d, stale notification should be dropped", len(cap.published))
	}
}

func TestCoalescerOutOfOrderPendingResets(t *testing.T) {
	c, cap := newTestCoalescer()

	c.Update(domain.AccountBids, []byte("b"), 10)
	c.Update(domain.AccountAsks, []byte("a"), 9)

	if len(cap.published) != 0 {
		t.Fatalf("published = %d, want 0 after reset", len(cap.published))
	}

	// State is pristine again: a fresh complete slot publishes normally.
	c.Update(domain.AccountBids, []byte("b"), 12)
	c.Update(domain.AccountAsks, []byte("a"), 12)
	c.Update(domain.AccountEventQueue, []byte("q"), 12)
	if len(cap.published) != 1 || cap.published[0].Slot != 12 {
		t.Errorf("published = %+v", cap.published)
	}
}

func TestCoalescerBootstrapPinsSlot(t *testing.T) {
	c, cap := newTestCoalescer()

	c.Bootstrap(domain.AccountsData{
		Bids:       []byte("b"),
		Asks:       []byte("a"),
		EventQueue: []byte("q"),
	}, 100)

	if len(cap.published) != 1 || cap.published[0].Slot != 100 {
		t.Fatalf("published = %+v", cap.published)
	}

	// WS notifications for the snapshot slot were already covered by the
	// REST fetch.
	c.Update(domain.AccountBids, []byte("dup"), 100)
	if len(cap.published) != 1 {
		t.Errorf("published = %d after snapshot-slot update", len(cap.published))
	}

	// The next slot processes normally.
	c.Update(domain.AccountBids, []byte("b"), 101)
	c.Update(domain.AccountAsks, []byte("a"), 101)
	c.Update(domain.AccountEventQueue, []byte("q"), 101)
	if len(cap.published) != 2 || cap.published[1].Slot != 101 {
		t.Errorf("published = %+v", cap.published)
	}
}

func TestCoalescerTimerPublishesPartialSlot(t *testing.T) {
	done := make(chan domain.AccountsNotification, 1)
	c := NewSlotCoalescer(slog.Default(), func(n domain.AccountsNotification) {
		done <- n
	})
	c.wait = 10 * time.Millisecond

	c.Update(domain.AccountBids, []byte("b"), 10)

	select {
	case n := <-done:
		if n.Slot != 10 || n.Accounts.Bids == nil || n.Accounts.Asks != nil {
			t.Errorf("timer notification = %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("partial slot was never published")
	}
}

func TestCoalescerResetClearsPending(t *testing.T) {
	c, cap := newTestCoalescer()

	c.Update(domain.AccountBids, []byte("b"), 10)
	c.Reset()

	// The same slot is acceptable again after a reset.
	c.Update(domain.AccountBids, []byte("b"), 10)
	c.Update(domain.AccountAsks, []byte("a"), 10)
	c.Update(domain.AccountEventQueue, []byte("q"), 10)
	if len(cap.published) != 1 || cap.published[0].Slot != 10 {
		t.Errorf("published = %+v", cap.published)
	}
}
