// Package evm talks to an Ethereum-compatible node over JSON-RPC.
package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transport performs raw JSON-RPC 2.0 calls against a node endpoint.
type Transport interface {
	// Call invokes method with positional params and decodes the result into result.
	// A nil result discards the response payload.
	Call(ctx context.Context, result any, method string, params ...any) error

	// Close releases the underlying connection.
	Close() error
}

// CallMsg is the argument object of eth_call and eth_estimateGas.
type CallMsg struct {
	From     common.Address
	To       *common.Address
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
}

// Envelope is an unsigned legacy transaction built for the local signer.
// Nonce and ChainID are filled from the node when nil.
type Envelope struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
	Nonce    *uint64
	ChainID  *big.Int
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// decodeResult returns the RPC error, or decodes the result into out.
func (r *rpcResponse) decodeResult(out any) error {
	if r.Error != nil {
		return r.Error
	}
	if out == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
