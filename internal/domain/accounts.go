package domain

// AccountName identifies one of the three market accounts tracked per market.
type AccountName string

const (
	AccountBids       AccountName = "bids"
	AccountAsks       AccountName = "asks"
	AccountEventQueue AccountName = "eventQueue"
)

// AccountsData holds the raw account buffers that changed in a single slot.
// A nil buffer means the account did not change since the last notification.
type AccountsData struct {
	Bids       []byte
	Asks       []byte
	EventQueue []byte
}

// Empty reports whether no account buffer is present.
func (a AccountsData) Empty() bool {
	return a.Bids == nil && a.Asks == nil && a.EventQueue == nil
}

// Get returns the buffer for the named account.
func (a AccountsData) Get(name AccountName) []byte {
	switch name {
	case AccountBids:
		return a.Bids
	case AccountAsks:
		return a.Asks
	case AccountEventQueue:
		return a.EventQueue
	}
	return nil
}

// Set stores the buffer for the named account.
func (a *AccountsData) Set(name AccountName, data []byte) {
	switch name {
	case AccountBids:
		a.Bids = data
	case AccountAsks:
		a.Asks = data
	case AccountEventQueue:
		a.EventQueue = data
	}
}

// AccountsNotification is one coalesced per-slot notification from the RPC
// feed. Reset == true carries no data and means "discard all derived state;
// the next data notification is a fresh baseline".
type AccountsNotification struct {
	Accounts AccountsData
	Slot     uint64
	Reset    bool
}
