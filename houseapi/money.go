package houseapi

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional decimal digits carried by wire
// amounts. Internally every value is an integer count of base units, so
// "1.25" parses to 1_250_000_000 base units.
const AmountScale = 9

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// ParseAmount converts a decimal string amount into integer base units.
// Uses decimal arithmetic so no floating-point rounding can change the value
// a bidder escrows or bids.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("invalid amount %q: negative", s)
	}
	shifted := d.Shift(AmountScale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimal places", s, AmountScale)
	}
	if shifted.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("invalid amount %q: exceeds representable range", s)
	}
	return shifted.BigInt().Uint64(), nil
}

// FormatAmount renders base units back into the wire decimal form.
func FormatAmount(units uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -AmountScale).String()
}
