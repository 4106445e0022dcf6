package domain

import "errors"

var (
	ErrBufferTooShort = errors.New("account buffer too short")
	ErrInvalidSlab    = errors.New("invalid slab layout")
	ErrUnknownMarket  = errors.New("unknown market")
	ErrOutOfOrderSlot = errors.New("out of order slot notification")
	ErrWSDisconnect   = errors.New("websocket disconnected")
	ErrNotConnected   = errors.New("not connected")
)
