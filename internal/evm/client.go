package evm

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Client is a typed Ethereum JSON-RPC client for token reads and transfers.
type Client struct {
	transport Transport
	signer    *Signer

	chainMu sync.Mutex
	chainID *big.Int
}

// Option configures Client.
type Option func(*Client)

// WithSigner enables local transaction signing.
func WithSigner(s *Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// WithChainID pins the chain id instead of querying eth_chainId.
func WithChainID(id *big.Int) Option {
	return func(c *Client) {
		if id != nil && id.Sign() > 0 {
			c.chainID = new(big.Int).Set(id)
		}
	}
}

// NewClient wraps an existing transport.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{transport: t}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DialOptions configures the transport chosen by Dial.
type DialOptions struct {
	HTTP   []ClientOption
	WS     *WSClientConfig
	Logger *zap.Logger
}

// Dial creates a client for rawURL. http and https use HTTPClient, ws and wss
// use a persistent WSClient.
func Dial(ctx context.Context, rawURL string, dialOpts DialOptions, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewClient(NewHTTPClient(rawURL, dialOpts.HTTP...), opts...), nil
	case "ws", "wss":
		cfg := DefaultWSConfig()
		if dialOpts.WS != nil {
			cfg = *dialOpts.WS
		}
		if cfg.Logger == nil {
			cfg.Logger = dialOpts.Logger
		}
		ws, err := NewWSClient(ctx, rawURL, &cfg)
		if err != nil {
			return nil, err
		}
		return NewClient(ws, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}

// SignerAddress returns the signing account, or false when no key is configured.
func (c *Client) SignerAddress() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return c.signer.Address(), true
}

// CallContract executes eth_call against the latest block.
func (c *Client) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.transport.Call(ctx, &out, "eth_call", toCallArg(msg), "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// TokenBalance returns the ERC-20 balanceOf(wallet) of token.
func (c *Client) TokenBalance(ctx context.Context, token, wallet common.Address) (*big.Int, error) {
	data, err := EncodeBalanceOf(wallet)
	if err != nil {
		return nil, err
	}
	out, err := c.CallContract(ctx, CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	return DecodeUint256(out)
}

// TokenURI returns the ERC-721 tokenURI(tokenID) of nft.
func (c *Client) TokenURI(ctx context.Context, nft common.Address, tokenID *big.Int) (string, error) {
	data, err := EncodeTokenURI(tokenID)
	if err != nil {
		return "", err
	}
	out, err := c.CallContract(ctx, CallMsg{To: &nft, Data: data})
	if err != nil {
		return "", err
	}
	return DecodeString(out)
}

// GasPrice returns the node's suggested legacy gas price.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	var out hexutil.Big
	if err := c.transport.Call(ctx, &out, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&out), nil
}

// EstimateGas returns the gas limit the node estimates for msg.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var out hexutil.Uint64
	if err := c.transport.Call(ctx, &out, "eth_estimateGas", toCallArg(msg)); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

// PendingNonce returns the next nonce of account including pending transactions.
func (c *Client) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	var out hexutil.Uint64
	if err := c.transport.Call(ctx, &out, "eth_getTransactionCount", account, "pending"); err != nil {
		return 0, err
	}
	return uint64(out), nil
}

// ChainID returns the configured chain id, querying eth_chainId once if unset.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()

	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}

	var out hexutil.Big
	if err := c.transport.Call(ctx, &out, "eth_chainId"); err != nil {
		return nil, err
	}
	c.chainID = (*big.Int)(&out)
	return new(big.Int).Set(c.chainID), nil
}

// Listening reports net_listening.
func (c *Client) Listening(ctx context.Context) (bool, error) {
	var out bool
	if err := c.transport.Call(ctx, &out, "net_listening"); err != nil {
		return false, err
	}
	return out, nil
}

// SignTransaction fills nonce and chain id when absent and signs env with the
// configured key.
func (c *Client) SignTransaction(ctx context.Context, env Envelope) (*types.Transaction, error) {
	if c.signer == nil {
		return nil, ErrMissingKey
	}
	if env.From != c.signer.Address() {
		return nil, fmt.Errorf("%w: sender %s does not match signing key %s", ErrInvalidEnvelope, env.From.Hex(), c.signer.Address().Hex())
	}

	if env.Nonce == nil {
		nonce, err := c.PendingNonce(ctx, env.From)
		if err != nil {
			return nil, fmt.Errorf("get nonce: %w", err)
		}
		env.Nonce = &nonce
	}
	if env.ChainID == nil {
		id, err := c.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("get chain id: %w", err)
		}
		env.ChainID = id
	}

	return c.signer.Sign(env)
}

// SendTransaction broadcasts a signed transaction and returns its hash.
// The call is attempted exactly once.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode transaction: %w", err)
	}

	var hash common.Hash
	if err := c.transport.Call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	if hash == (common.Hash{}) {
		hash = tx.Hash()
	}
	return hash, nil
}

func toCallArg(msg CallMsg) map[string]any {
	arg := map[string]any{}
	if msg.From != (common.Address{}) {
		arg["from"] = msg.From
	}
	if msg.To != nil {
		arg["to"] = msg.To
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}
