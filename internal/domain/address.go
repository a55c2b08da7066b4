package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Input validation errors.
var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidTokenID = errors.New("invalid token id")
)

// ParseAddress parses a hex account address. The 0x prefix is optional and
// short forms are left-padded, so "0x1" is the address ending in 01.
func ParseAddress(s string) (common.Address, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if raw == "" || len(raw) > 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for _, c := range raw {
		if !isHexDigit(c) {
			return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	return common.HexToAddress(raw), nil
}

// ParseTokenID parses a decimal or 0x-prefixed hex uint256 token id.
func ParseTokenID(s string) (*big.Int, error) {
	a, err := ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenID, s)
	}
	return a.ToBig(), nil
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
