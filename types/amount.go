// Package types provides value types shared across Carbonlock.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// AmountDecimals is the number of decimal places of one whole ckBTC.
const AmountDecimals = 8

// AmountUnit is the ticker used when formatting amounts.
const AmountUnit = "ckBTC"

const unitsPerCoin = 100_000_000

// ErrAmountOverflow is returned when a result exceeds the uint64 range.
var ErrAmountOverflow = errors.New("amount: overflow")

// ErrInsufficient is returned when a subtraction would go below zero.
var ErrInsufficient = errors.New("amount: insufficient")

// Amount is a quantity of ckBTC in base units (1e-8 ckBTC, like satoshis).
// All arithmetic is integer-only and overflow-checked.
type Amount uint64

// Coins creates an Amount from a whole number of ckBTC, or returns
// ErrAmountOverflow when n ckBTC do not fit in base units.
func Coins(n uint64) (Amount, error) {
	if n > math.MaxUint64/unitsPerCoin {
		return 0, ErrAmountOverflow
	}
	return Amount(n * unitsPerCoin), nil
}

// Add returns a+b, or ErrAmountOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	if uint64(b) > math.MaxUint64-uint64(a) {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Sub returns a-b, or ErrInsufficient when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, ErrInsufficient
	}
	return a - b, nil
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// FormatMajor returns the amount in whole ckBTC without the unit:
// "0.00000500" for Amount(500).
func (a Amount) FormatMajor() string {
	return fmt.Sprintf("%d.%0*d", uint64(a)/unitsPerCoin, AmountDecimals, uint64(a)%unitsPerCoin)
}

// String returns a human-readable string, e.g. "1.50000000 ckBTC".
func (a Amount) String() string {
	return a.FormatMajor() + " " + AmountUnit
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Units   uint64 `json:"units"`
		Display string `json:"display"`
	}{
		Units:   uint64(a),
		Display: a.String(),
	})
}

// UnmarshalJSON accepts both the object form produced by MarshalJSON and a
// bare number of base units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var units uint64
	if err := json.Unmarshal(data, &units); err == nil {
		*a = Amount(units)
		return nil
	}

	var obj struct {
		Units uint64 `json:"units"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(obj.Units)
	return nil
}

// Sum adds all values, failing on overflow.
func Sum(values ...Amount) (Amount, error) {
	var total Amount
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return 0, err
		}
	}
	return total, nil
}
