package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Function signatures of the token standards this package calls.
const (
	sigBalanceOf = "balanceOf(address)"
	sigTokenURI  = "tokenURI(uint256)"
	sigTransfer  = "transfer(address,uint256)"
)

var (
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	stringType, _  = abi.NewType("string", "", nil)
)

// Selector returns the 4-byte function selector of a canonical signature.
func Selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// EncodeBalanceOf encodes an ERC-20 balanceOf(owner) call.
func EncodeBalanceOf(owner common.Address) ([]byte, error) {
	return encodeCall(sigBalanceOf, abi.Arguments{{Type: addressType}}, owner)
}

// EncodeTokenURI encodes an ERC-721 tokenURI(tokenId) call.
func EncodeTokenURI(tokenID *big.Int) ([]byte, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return nil, fmt.Errorf("token id must be a non-negative integer")
	}
	return encodeCall(sigTokenURI, abi.Arguments{{Type: uint256Type}}, tokenID)
}

// EncodeTransfer encodes an ERC-20 transfer(to, amount) call.
func EncodeTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be a non-negative integer")
	}
	return encodeCall(sigTransfer, abi.Arguments{{Type: addressType}, {Type: uint256Type}}, to, amount)
}

func encodeCall(signature string, args abi.Arguments, values ...any) ([]byte, error) {
	packed, err := args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", signature, err)
	}
	return append(Selector(signature), packed...), nil
}

// DecodeUint256 decodes a single uint256 return value.
func DecodeUint256(data []byte) (*big.Int, error) {
	if len(data) == 0 {
		return nil, ErrEmptyResult
	}
	decoded, err := abi.Arguments{{Type: uint256Type}}.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack uint256: %w", err)
	}
	v, ok := decoded[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack uint256: unexpected type %T", decoded[0])
	}
	return v, nil
}

// DecodeString decodes a single string return value.
func DecodeString(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyResult
	}
	decoded, err := abi.Arguments{{Type: stringType}}.Unpack(data)
	if err != nil {
		return "", fmt.Errorf("unpack string: %w", err)
	}
	s, ok := decoded[0].(string)
	if !ok {
		return "", fmt.Errorf("unpack string: unexpected type %T", decoded[0])
	}
	return s, nil
}
