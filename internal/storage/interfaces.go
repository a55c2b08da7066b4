package storage

import (
	"context"

	"evm-token-gateway/internal/domain"
)

// TransferRecordStore provides access to transfer_records storage.
type TransferRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if transaction_hash exists,
	// ErrInvalidInput if a required field is missing.
	Insert(ctx context.Context, r *domain.TransferRecord) error

	// GetByHash retrieves a record by transaction hash. Returns ErrNotFound if not exists.
	GetByHash(ctx context.Context, txHash string) (*domain.TransferRecord, error)

	// List returns up to limit records in insertion order. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.TransferRecord, error)
}

// NFTMetadataStore provides access to nft_metadata storage.
type NFTMetadataStore interface {
	// Insert appends a metadata record. Returns ErrInvalidInput if name,
	// description or imageUrl is missing.
	Insert(ctx context.Context, m *domain.NFTMetadataRecord) error

	// GetByToken retrieves every record fetched for (contract, tokenID), in insertion order.
	GetByToken(ctx context.Context, contractAddress, tokenID string) ([]*domain.NFTMetadataRecord, error)
}

// IPFSDataStore provides access to ipfs_data storage.
type IPFSDataStore interface {
	// Insert appends a content record. Returns ErrInvalidInput if hash or text is missing.
	Insert(ctx context.Context, d *domain.IPFSDataRecord) error

	// GetByHash retrieves every record stored for hash, in insertion order.
	GetByHash(ctx context.Context, hash string) ([]*domain.IPFSDataRecord, error)
}

// Stores groups the record stores of one backend.
type Stores struct {
	Transfers TransferRecordStore
	Metadata  NFTMetadataStore
	IPFS      IPFSDataStore
}
