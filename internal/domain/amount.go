package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ErrInvalidAmount is returned when an amount is not a non-negative integer
// that fits in 256 bits.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a token quantity in base units (uint256).
// The zero value is "unset", which is distinct from an explicit zero.
type Amount struct {
	v   uint256.Int
	set bool
}

// NewAmount creates a set Amount from a uint64.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	a.set = true
	return a
}

// ParseAmount parses a decimal or 0x-prefixed hex string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	if strings.HasPrefix(s, "-") {
		return Amount{}, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, s)
	}

	digits, base := s, 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits, base = s[2:], 16
	}
	if digits == "" || !allDigits(digits, base) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	var a Amount
	if overflow := a.v.SetFromBig(n); overflow {
		return Amount{}, fmt.Errorf("%w: %q exceeds 256 bits", ErrInvalidAmount, s)
	}
	a.set = true
	return a, nil
}

// allDigits reports whether s holds only digits of base 10 or 16.
// Leading zeros are plain digits, never an octal marker.
func allDigits(s string, base int) bool {
	for _, c := range s {
		switch {
		case '0' <= c && c <= '9':
		case base == 16 && (('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')):
		default:
			return false
		}
	}
	return true
}

// IsSet reports whether the amount was provided.
func (a Amount) IsSet() bool {
	return a.set
}

// ToBig returns the amount as a new big.Int.
func (a Amount) ToBig() *big.Int {
	return a.v.ToBig()
}

// String returns the decimal representation, or "" when unset.
func (a Amount) String() string {
	if !a.set {
		return ""
	}
	return a.v.Dec()
}

// Equal reports whether both amounts are set and hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.set == b.set && a.v.Eq(&b.v)
}

// MarshalJSON encodes the amount as a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return []byte(a.v.Dec()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
// null and "" leave the amount unset.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		if strings.TrimSpace(raw) == "" {
			*a = Amount{}
			return nil
		}
	} else {
		raw = string(data)
	}

	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
