// Package feed streams raw Serum account data out of a Solana RPC node: a
// WebSocket client subscribes to the market's bids, asks and event queue
// accounts and a slot coalescer folds the per-account notifications into at
// most one synchronized notification per slot.
package feed

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tardis-dev/serum-vial/internal/domain"
)

// publishWait bounds how long a partially filled slot waits for the remaining
// account notifications before being published as-is. Not every tracked
// account changes in every slot, so a slot is rarely "complete".
const publishWait = 10 * time.Second

// slowSlotThreshold flags slots whose account notifications straggled.
const slowSlotThreshold = 400 * time.Millisecond

type coalescerState int

const (
	statePristine coalescerState = iota
	statePending
	statePublished
)

// SlotCoalescer collects per-account RPC notifications and emits at most one
// accounts notification per slot, so downstream processing always sees the
// event queue and book changes of a slot together and in order.
type SlotCoalescer struct {
	logger    *slog.Logger
	onPublish func(domain.AccountsNotification)
	wait      time.Duration

	mu        sync.Mutex
	state     coalescerState
	slot      uint64
	hasSlot   bool
	accounts  domain.AccountsData
	slotStart time.Time
	timer     *time.Timer
}

// NewSlotCoalescer builds a coalescer delivering merged notifications to
// onPublish. The callback runs either inside Update or on a timer goroutine.
func NewSlotCoalescer(logger *slog.Logger, onPublish func(domain.AccountsNotification)) *SlotCoalescer {
	return &SlotCoalescer{
		logger:    logger.With("component", "coalescer"),
		onPublish: onPublish,
		wait:      publishWait,
	}
}

// Bootstrap publishes a REST-fetched accounts snapshot directly and pins the
// current slot so the WS notification for the same slot is not re-processed.
func (c *SlotCoalescer) Bootstrap(accounts domain.AccountsData, slot uint64) {
	c.mu.Lock()
	c.slot = slot
	c.hasSlot = true
	c.state = statePristine
	c.mu.Unlock()

	c.onPublish(domain.AccountsNotification{Accounts: accounts, Slot: slot})
}

// Reset clears all pending state, e.g. before a reconnect.
func (c *SlotCoalescer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *SlotCoalescer) resetLocked() {
	c.state = statePristine
	c.slot = 0
	c.hasSlot = false
	c.accounts = domain.AccountsData{}
	c.slotStart = time.Time{}
	c.stopTimerLocked()
}

// Update folds one account notification into the current slot. Data for a
// newer slot publishes the pending slot first; stale or out-of-order slots
// are dropped or reset the pending state.
func (c *SlotCoalescer) Update(name domain.AccountName, data []byte, slot uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateLocked(name, data, slot)
}

func (c *SlotCoalescer) updateLocked(name domain.AccountName, data []byte, slot uint64) {
	if c.state == statePublished {
		if slot < c.slot {
			c.logger.Warn("stale account notification, ignoring",
				"account", name, "slot", slot, "current_slot", c.slot)
			return
		}
		if slot == c.slot {
			return
		}
		c.state = statePristine
	}

	if c.state == statePristine {
		if c.hasSlot && c.slot == slot {
			// Already processed through the REST snapshot for this slot.
			c.logger.Warn("ignoring account notification for snapshot slot",
				"account", name, "slot", slot)
			return
		}
		c.slot = slot
		c.hasSlot = true
		c.state = statePending
		c.slotStart = time.Now()
	}

	c.restartTimerLocked()

	switch {
	case slot == c.slot:
		if c.accounts.Get(name) != nil {
			c.logger.Warn("second account update within one slot",
				"account", name, "slot", slot)
		}
		c.accounts.Set(name, data)
		if c.accounts.Bids != nil && c.accounts.Asks != nil && c.accounts.EventQueue != nil {
			// Data for all tracked accounts arrived, no need to keep waiting.
			c.publishLocked()
		}
	case slot > c.slot:
		c.publishLocked()
		c.updateLocked(name, data, slot)
	default:
		c.logger.Warn("out of order notification for pending slot, resetting",
			"account", name, "slot", slot, "current_slot", c.slot)
		c.resetLocked()
	}
}

func (c *SlotCoalescer) publishLocked() {
	c.state = statePublished

	if !c.slotStart.IsZero() {
		if span := time.Since(c.slotStart); span > slowSlotThreshold {
			c.logger.Debug("slow accounts notification", "slot", c.slot, "span", span)
		}
	}

	notification := domain.AccountsNotification{Accounts: c.accounts, Slot: c.slot}
	c.accounts = domain.AccountsData{}
	c.slotStart = time.Time{}
	c.stopTimerLocked()

	c.onPublish(notification)
}

// restartTimerLocked arms the partial-slot publish timer: if no further
// account notifications arrive for the pending slot, publish what we have.
func (c *SlotCoalescer) restartTimerLocked() {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.wait, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == statePending {
			c.publishLocked()
		}
	})
}

func (c *SlotCoalescer) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
