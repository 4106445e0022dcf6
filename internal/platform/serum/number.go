package serum

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var bigTen = big.NewInt(10)

// pow10 returns 10^n as a big integer.
func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}

// divToDecimal divides num by den using exact integer arithmetic and returns
// the quotient as a decimal rounded half-up to the given number of places.
// This replaces floating-point division so that internally computed and
// serialized values can never drift apart.
func divToDecimal(num, den *big.Int, places int32) decimal.Decimal {
	if den.Sign() == 0 {
		return decimal.Zero
	}

	scale := new(big.Int).Exp(bigTen, big.NewInt(int64(places)), nil)
	scaled := new(big.Int).Mul(num, scale)

	quo, rem := new(big.Int).QuoRem(scaled, den, new(big.Int))

	// Round half-up on the remainder.
	rem.Mul(rem, big.NewInt(2))
	if rem.CmpAbs(den) >= 0 {
		if scaled.Sign() < 0 {
			quo.Sub(quo, big.NewInt(1))
		} else {
			quo.Add(quo, big.NewInt(1))
		}
	}

	return decimal.NewFromBigInt(quo, -places)
}

// u64Big converts a uint64 into a big integer.
func u64Big(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
