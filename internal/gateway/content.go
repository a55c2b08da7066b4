package gateway

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"evm-token-gateway/internal/content"
	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/observability"
)

// ContentResult is a retrieved IPFS payload.
type ContentResult struct {
	Data []byte
	// PersistErr is set when the payload could not be stored.
	PersistErr error
}

// GetContent retrieves the full payload addressed by hash and appends it to
// the IPFS data log.
func (s *Service) GetContent(ctx context.Context, hash string) (*ContentResult, error) {
	log := s.log.With(zap.String("component", "content"))

	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, invalid("validate", "hash is required")
	}
	if err := content.ValidateCID(hash); err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}

	callCtx, cancel := s.callCtx(ctx)
	data, err := s.content.Cat(callCtx, hash)
	cancel()
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, wrap(KindNotFound, "retrieve content", err)
		}
		return nil, wrap(KindFetchFailed, "retrieve content", err)
	}

	res := &ContentResult{Data: data}

	record := &domain.IPFSDataRecord{Hash: hash, Text: string(data), CreatedAt: s.nowMs()}
	persistCtx, cancel := s.persistCtx(ctx)
	defer cancel()
	if perr := s.stores.IPFS.Insert(persistCtx, record); perr != nil {
		res.PersistErr = wrap(KindPersistenceFailed, "persist content", perr)
		observability.RecordPersistenceFailure("ipfs_data")
		log.Warn("content retrieved but not persisted", zap.String("hash", hash), zap.Error(perr))
	}

	return res, nil
}
