package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the service's private key and signs legacy EIP-155 transactions.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex private key (0x prefix optional).
func NewSigner(hexKey string) (*Signer, error) {
	trimmed := strings.TrimSpace(hexKey)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if trimmed == "" {
		return nil, ErrMissingKey
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the account controlled by the key.
func (s *Signer) Address() common.Address {
	return s.address
}

// Sign signs a fully populated envelope. The envelope sender must be the
// key's own address.
func (s *Signer) Sign(env Envelope) (*types.Transaction, error) {
	if env.From != s.address {
		return nil, fmt.Errorf("%w: sender %s does not match signing key %s", ErrInvalidEnvelope, env.From.Hex(), s.address.Hex())
	}
	if env.Nonce == nil || env.ChainID == nil || env.GasPrice == nil || env.Gas == 0 {
		return nil, fmt.Errorf("%w: nonce, chain id, gas and gas price are required", ErrInvalidEnvelope)
	}
	if env.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: chain id must be positive", ErrInvalidEnvelope)
	}

	value := env.Value
	if value == nil {
		value = new(big.Int)
	}

	to := env.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    *env.Nonce,
		GasPrice: env.GasPrice,
		Gas:      env.Gas,
		To:       &to,
		Value:    value,
		Data:     env.Data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(env.ChainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}
