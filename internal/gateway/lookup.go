package gateway

import (
	"context"
	"errors"
	"strings"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// GetTransfer returns the stored record of a broadcast transfer.
func (s *Service) GetTransfer(ctx context.Context, txHash string) (*domain.TransferRecord, error) {
	txHash = strings.ToLower(strings.TrimSpace(txHash))
	if txHash == "" {
		return nil, invalid("validate", "transaction hash is required")
	}

	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	rec, err := s.stores.Transfers.GetByHash(callCtx, txHash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, wrap(KindNotFound, "lookup transfer", err)
		}
		return nil, wrap(KindInternal, "lookup transfer", err)
	}
	return rec, nil
}
