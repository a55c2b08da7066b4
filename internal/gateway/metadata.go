package gateway

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/observability"
)

// MetadataResult is a fetched NFT metadata document.
type MetadataResult struct {
	// Document is the JSON exactly as served by the token URI target.
	Document []byte
	// PersistErr is set when the document could not be stored.
	PersistErr error
}

// GetMetadata reads tokenURI(tokenID) from contract, fetches the document it
// points to and appends it to the metadata log.
func (s *Service) GetMetadata(ctx context.Context, contract, tokenID string) (*MetadataResult, error) {
	log := s.log.With(zap.String("component", "metadata"))

	contract, tokenID = strings.TrimSpace(contract), strings.TrimSpace(tokenID)
	if contract == "" || tokenID == "" {
		return nil, invalid("validate", "contractAddress and tokenId are required")
	}
	nft, err := domain.ParseAddress(contract)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}
	id, err := domain.ParseTokenID(tokenID)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}

	callCtx, cancel := s.callCtx(ctx)
	uri, err := s.chain.TokenURI(callCtx, nft, id)
	cancel()
	if err != nil {
		return nil, classifyRead("token uri", err)
	}

	callCtx, cancel = s.callCtx(ctx)
	doc, err := s.content.FetchJSON(callCtx, uri)
	cancel()
	if err != nil {
		return nil, wrap(KindFetchFailed, "fetch metadata", err)
	}

	res := &MetadataResult{Document: doc}

	if perr := s.persistMetadata(ctx, nft.Hex(), id.String(), doc); perr != nil {
		res.PersistErr = wrap(KindPersistenceFailed, "persist metadata", perr)
		observability.RecordPersistenceFailure("nft_metadata")
		log.Warn("metadata fetched but not persisted",
			zap.String("contract", nft.Hex()),
			zap.String("token_id", id.String()),
			zap.Error(perr),
		)
	}

	return res, nil
}

func (s *Service) persistMetadata(ctx context.Context, contract, tokenID string, doc []byte) error {
	rec, err := domain.ParseNFTMetadata(doc)
	if err != nil {
		return err
	}
	rec.ContractAddress = contract
	rec.TokenID = tokenID
	rec.CreatedAt = s.nowMs()

	persistCtx, cancel := s.persistCtx(ctx)
	defer cancel()
	return s.stores.Metadata.Insert(persistCtx, rec)
}
