package evm

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrUnavailable wraps transport failures reaching the node.
	ErrUnavailable = errors.New("rpc endpoint unavailable")

	// ErrMissingKey is returned when signing is requested without a configured key.
	ErrMissingKey = errors.New("signing key not configured")

	// ErrInvalidEnvelope is returned for envelopes the signer refuses.
	ErrInvalidEnvelope = errors.New("invalid transaction envelope")

	// ErrEmptyResult is returned when a contract call returns no data.
	ErrEmptyResult = errors.New("empty call result")

	// ErrClientClosed is returned for calls on a closed transport.
	ErrClientClosed = errors.New("client closed")
)

// RPCError is a JSON-RPC 2.0 error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
