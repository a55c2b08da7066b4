package evm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner("0x" + testKeyHex)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestNewSigner(t *testing.T) {
	s := newTestSigner(t)

	key, _ := crypto.HexToECDSA(testKeyHex)
	if s.Address() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Errorf("unexpected signer address %s", s.Address().Hex())
	}

	upper, err := NewSigner("0X" + testKeyHex)
	if err != nil {
		t.Fatalf("NewSigner with 0X prefix: %v", err)
	}
	if upper.Address() != s.Address() {
		t.Errorf("0X prefix gave address %s, want %s", upper.Address().Hex(), s.Address().Hex())
	}
	bare, err := NewSigner(testKeyHex)
	if err != nil || bare.Address() != s.Address() {
		t.Errorf("unprefixed key: address %v, err %v", bare, err)
	}

	if _, err := NewSigner(""); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
	if _, err := NewSigner("zz"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestSigner_Sign(t *testing.T) {
	s := newTestSigner(t)
	nonce := uint64(7)

	tx, err := s.Sign(Envelope{
		From:     s.Address(),
		To:       common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		Data:     []byte{0xa9, 0x05, 0x9c, 0xbb},
		Gas:      60000,
		GasPrice: big.NewInt(1_000_000_000),
		Nonce:    &nonce,
		ChainID:  big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(1)), tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != s.Address() {
		t.Errorf("expected sender %s, got %s", s.Address().Hex(), sender.Hex())
	}
	if tx.Nonce() != 7 || tx.Gas() != 60000 {
		t.Errorf("unexpected nonce/gas %d/%d", tx.Nonce(), tx.Gas())
	}
	if tx.ChainId().Int64() != 1 {
		t.Errorf("expected chain id 1, got %s", tx.ChainId())
	}
}

func TestSigner_RejectsForeignSender(t *testing.T) {
	s := newTestSigner(t)
	nonce := uint64(0)

	_, err := s.Sign(Envelope{
		From:     common.HexToAddress("0x1"),
		To:       common.HexToAddress("0x2"),
		Gas:      21000,
		GasPrice: big.NewInt(1),
		Nonce:    &nonce,
		ChainID:  big.NewInt(1),
	})
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestSigner_RejectsIncompleteEnvelope(t *testing.T) {
	s := newTestSigner(t)

	_, err := s.Sign(Envelope{From: s.Address(), To: common.HexToAddress("0x2")})
	if !errors.Is(err, ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}
