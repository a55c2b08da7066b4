package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies workflow failures.
type Kind string

const (
	KindInvalidRequest     Kind = "InvalidRequest"
	KindChainUnavailable   Kind = "ChainUnavailable"
	KindContractCallFailed Kind = "ContractCallFailed"
	KindEstimationFailed   Kind = "EstimationFailed"
	KindSigningFailed      Kind = "SigningFailed"
	KindBroadcastFailed    Kind = "BroadcastFailed"
	KindFetchFailed        Kind = "FetchFailed"
	KindNotFound           Kind = "NotFound"
	KindPersistenceFailed  Kind = "PersistenceFailed"
	KindTimeout            Kind = "Timeout"
	KindInternal           Kind = "Internal"
)

// Error is a classified workflow failure.
type Error struct {
	Kind Kind
	Op   string // workflow step, e.g. "estimate gas"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the human-readable summary of a kind.
func (k Kind) Message() string {
	switch k {
	case KindInvalidRequest:
		return "Invalid request"
	case KindChainUnavailable:
		return "Blockchain node unavailable"
	case KindContractCallFailed:
		return "Contract call failed"
	case KindEstimationFailed:
		return "Gas estimation failed"
	case KindSigningFailed:
		return "Transaction signing failed"
	case KindBroadcastFailed:
		return "Transaction broadcast failed"
	case KindFetchFailed:
		return "Content fetch failed"
	case KindNotFound:
		return "Content not found"
	case KindPersistenceFailed:
		return "Failed to persist record"
	case KindTimeout:
		return "Upstream call timed out"
	default:
		return "Internal error"
	}
}

// wrap classifies err under kind. Deadline errors always become Timeout.
func wrap(kind Kind, op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// invalid builds an InvalidRequest error.
func invalid(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Op: op, Err: fmt.Errorf(format, args...)}
}
