// Package stub provides an in-memory chain client for tests.
package stub

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"evm-token-gateway/internal/evm"
)

// ErrNotConfigured is returned when a read has no canned answer.
var ErrNotConfigured = errors.New("stub: no value configured")

// ChainClient records every call and answers from configured values.
type ChainClient struct {
	mu sync.Mutex

	// Balances maps token contract -> wallet -> balance.
	Balances map[common.Address]map[common.Address]*big.Int
	// TokenURIs maps NFT contract -> decimal token id -> uri.
	TokenURIs map[common.Address]map[string]string

	GasPriceValue *big.Int
	GasEstimate   uint64
	// SendHash, when set, is returned by every broadcast instead of the tx hash.
	SendHash *common.Hash

	BalanceErr  error
	TokenURIErr error
	GasPriceErr error
	EstimateErr error
	SignErr     error
	SendErr     error

	// BlockOn names a method that waits for context cancellation instead of answering.
	BlockOn string

	Calls     []string
	Estimates []evm.CallMsg
	Signed    []evm.Envelope
	Sent      []*types.Transaction

	nonce uint64
}

// NewChainClient creates a stub with a 1 gwei gas price and 60k gas estimate.
func NewChainClient() *ChainClient {
	return &ChainClient{
		Balances:      make(map[common.Address]map[common.Address]*big.Int),
		TokenURIs:     make(map[common.Address]map[string]string),
		GasPriceValue: big.NewInt(1_000_000_000),
		GasEstimate:   60000,
	}
}

// SetBalance configures the balance of wallet in token.
func (c *ChainClient) SetBalance(token, wallet common.Address, balance *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Balances[token] == nil {
		c.Balances[token] = make(map[common.Address]*big.Int)
	}
	c.Balances[token][wallet] = balance
}

// SetTokenURI configures the token uri of (nft, tokenID).
func (c *ChainClient) SetTokenURI(nft common.Address, tokenID *big.Int, uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TokenURIs[nft] == nil {
		c.TokenURIs[nft] = make(map[string]string)
	}
	c.TokenURIs[nft][tokenID.String()] = uri
}

// CallLog returns a copy of the recorded method names.
func (c *ChainClient) CallLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Calls...)
}

func (c *ChainClient) enter(ctx context.Context, method string) error {
	c.mu.Lock()
	c.Calls = append(c.Calls, method)
	block := c.BlockOn == method
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

// TokenBalance returns the configured balance.
func (c *ChainClient) TokenBalance(ctx context.Context, token, wallet common.Address) (*big.Int, error) {
	if err := c.enter(ctx, "TokenBalance"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	b, ok := c.Balances[token][wallet]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(b), nil
}

// TokenURI returns the configured uri.
func (c *ChainClient) TokenURI(ctx context.Context, nft common.Address, tokenID *big.Int) (string, error) {
	if err := c.enter(ctx, "TokenURI"); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TokenURIErr != nil {
		return "", c.TokenURIErr
	}
	uri, ok := c.TokenURIs[nft][tokenID.String()]
	if !ok {
		return "", ErrNotConfigured
	}
	return uri, nil
}

// GasPrice returns the configured gas price.
func (c *ChainClient) GasPrice(ctx context.Context) (*big.Int, error) {
	if err := c.enter(ctx, "GasPrice"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GasPriceErr != nil {
		return nil, c.GasPriceErr
	}
	return new(big.Int).Set(c.GasPriceValue), nil
}

// EstimateGas returns the configured estimate.
func (c *ChainClient) EstimateGas(ctx context.Context, msg evm.CallMsg) (uint64, error) {
	if err := c.enter(ctx, "EstimateGas"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Estimates = append(c.Estimates, msg)
	if c.EstimateErr != nil {
		return 0, c.EstimateErr
	}
	return c.GasEstimate, nil
}

// SignTransaction builds an unsigned legacy transaction with an increasing nonce.
func (c *ChainClient) SignTransaction(ctx context.Context, env evm.Envelope) (*types.Transaction, error) {
	if err := c.enter(ctx, "SignTransaction"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signed = append(c.Signed, env)
	if c.SignErr != nil {
		return nil, c.SignErr
	}

	nonce := c.nonce
	c.nonce++
	to := env.To
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: env.GasPrice,
		Gas:      env.Gas,
		To:       &to,
		Value:    new(big.Int),
		Data:     env.Data,
	}), nil
}

// SendTransaction records tx and returns SendHash or the transaction hash.
func (c *ChainClient) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := c.enter(ctx, "SendTransaction"); err != nil {
		return common.Hash{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return common.Hash{}, c.SendErr
	}
	c.Sent = append(c.Sent, tx)
	if c.SendHash != nil {
		return *c.SendHash, nil
	}
	return tx.Hash(), nil
}
