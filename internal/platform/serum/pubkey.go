package serum

import "github.com/mr-tron/base58"

// PublicKeyString renders a raw 32-byte Solana public key as base58.
func PublicKeyString(key [32]byte) string {
	return base58.Encode(key[:])
}
