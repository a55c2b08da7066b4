package domain

import (
	"errors"
	"strings"
)

// ErrMissingField is returned when a required request field is empty.
var ErrMissingField = errors.New("missing required field")

// TransferRequest is a request to move tokens of the configured token contract.
type TransferRequest struct {
	From   string `json:"from"`   // sender account (hex)
	To     string `json:"to"`     // token recipient (hex)
	Amount Amount `json:"amount"` // base units
}

// MissingFields returns the names of empty required fields, in declaration order.
func (r TransferRequest) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.From) == "" {
		missing = append(missing, "from")
	}
	if strings.TrimSpace(r.To) == "" {
		missing = append(missing, "to")
	}
	if !r.Amount.IsSet() {
		missing = append(missing, "amount")
	}
	return missing
}

// TransferRecord is the persisted outcome of a broadcast transfer.
// Created only after a successful broadcast and never updated.
type TransferRecord struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Amount          Amount `json:"amount"`
	TransactionHash string `json:"transactionHash"` // 0x-prefixed, unique
	CreatedAt       int64  `json:"createdAt"`       // record creation timestamp (ms)
}

// Validate checks that all fields required for storage are present.
func (r *TransferRecord) Validate() error {
	if r == nil || r.From == "" || r.To == "" || !r.Amount.IsSet() || r.TransactionHash == "" {
		return ErrMissingField
	}
	return nil
}
