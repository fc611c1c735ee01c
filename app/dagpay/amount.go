package dagpay

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxAmountLength   = 64
	maxAmountExponent = 64
)

var (
	// Outside this range numbers render in exponent form on the gateway side,
	// so a plain-decimal token would never match its signature.
	minAmountMagnitude = decimal.New(1, -6)
	maxAmountMagnitude = decimal.New(1, 21)
)

// Amount is a decimal amount that renders in its natural representation:
// no trailing zeros, no exponent for ordinary values, no locale formatting.
// It encodes as a bare JSON number.
type Amount struct {
	decimal.Decimal
}

func ParseAmount(raw string) (Amount, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxAmountLength {
		return Amount{}, &InvalidAmountError{Value: truncateAmount(raw)}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil || !amountInRange(d) {
		return Amount{}, &InvalidAmountError{Value: raw}
	}
	return Amount{Decimal: d}, nil
}

func NewAmount(d decimal.Decimal) *Amount {
	return &Amount{Decimal: d}
}

func (a Amount) String() string {
	return a.Decimal.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	// two extra bytes for a quoted number
	if len(data) > maxAmountLength+2 {
		return &InvalidAmountError{Value: truncateAmount(string(data))}
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if !amountInRange(d) {
		return &InvalidAmountError{Value: string(data)}
	}
	a.Decimal = d
	return nil
}

// amountInRange checks the exponent first; comparisons rescale and are only
// cheap once it is bounded.
func amountInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > maxAmountExponent || exp < -maxAmountExponent {
		return false
	}
	if d.IsZero() {
		return true
	}
	abs := d.Abs()
	return abs.Cmp(minAmountMagnitude) >= 0 && abs.Cmp(maxAmountMagnitude) < 0
}

func truncateAmount(raw string) string {
	if len(raw) > maxAmountLength {
		return raw[:maxAmountLength] + "..."
	}
	return raw
}
