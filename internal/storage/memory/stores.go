package memory

import "evm-token-gateway/internal/storage"

// NewStores creates an empty in-memory backend.
func NewStores() storage.Stores {
	return storage.Stores{
		Transfers: NewTransferRecordStore(),
		Metadata:  NewNFTMetadataStore(),
		IPFS:      NewIPFSDataStore(),
	}
}
