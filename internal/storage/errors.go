// Package storage defines the append-only record stores of the gateway.
package storage

import "errors"

var (
	// ErrNotFound reports a lookup that matched no record.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey reports an insert whose unique key is already taken.
	// Records are never replaced.
	ErrDuplicateKey = errors.New("duplicate record key")

	// ErrInvalidInput reports a record missing required fields.
	ErrInvalidInput = errors.New("invalid record")
)
