package gateway

import (
	"context"

	"evm-token-gateway/internal/content"
	"evm-token-gateway/internal/domain"
)

// Transfer listing bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListTransfers returns up to limit transfer records, oldest first.
// Zero means DefaultListLimit; larger values are capped at MaxListLimit.
func (s *Service) ListTransfers(ctx context.Context, limit int) ([]*domain.TransferRecord, error) {
	switch {
	case limit < 0:
		return nil, invalid("validate", "limit must not be negative")
	case limit == 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	records, err := s.stores.Transfers.List(callCtx, limit)
	if err != nil {
		return nil, wrap(KindInternal, "list transfers", err)
	}
	return nonNil(records), nil
}

// MetadataHistory returns every stored fetch of one token's metadata, oldest
// first. Addresses and token ids are normalized the way GetMetadata stores
// them, so "0xABC..." and "0xabc..." match the same records.
func (s *Service) MetadataHistory(ctx context.Context, contract, tokenID string) ([]*domain.NFTMetadataRecord, error) {
	nft, err := domain.ParseAddress(contract)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}
	id, err := domain.ParseTokenID(tokenID)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}

	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	records, err := s.stores.Metadata.GetByToken(callCtx, nft.Hex(), id.String())
	if err != nil {
		return nil, wrap(KindInternal, "metadata history", err)
	}
	return nonNil(records), nil
}

// ContentHistory returns every stored retrieval of hash, oldest first.
func (s *Service) ContentHistory(ctx context.Context, hash string) ([]*domain.IPFSDataRecord, error) {
	if err := content.ValidateCID(hash); err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}

	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	records, err := s.stores.IPFS.GetByHash(callCtx, hash)
	if err != nil {
		return nil, wrap(KindInternal, "content history", err)
	}
	return nonNil(records), nil
}

func nonNil[T any](records []*T) []*T {
	if records == nil {
		return []*T{}
	}
	return records
}
