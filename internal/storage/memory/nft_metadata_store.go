package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// NFTMetadataStore is an in-memory implementation of storage.NFTMetadataStore.
type NFTMetadataStore struct {
	mu  sync.RWMutex
	log []*domain.NFTMetadataRecord
}

// NewNFTMetadataStore creates a new in-memory NFT metadata store.
func NewNFTMetadataStore() *NFTMetadataStore {
	return &NFTMetadataStore{}
}

// Insert appends a metadata record.
func (s *NFTMetadataStore) Insert(_ context.Context, m *domain.NFTMetadataRecord) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, copyMetadata(m))
	return nil
}

// GetByToken retrieves every record for (contract, tokenID), in insertion order.
func (s *NFTMetadataStore) GetByToken(_ context.Context, contractAddress, tokenID string) ([]*domain.NFTMetadataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.NFTMetadataRecord
	for _, m := range s.log {
		if m.ContractAddress == contractAddress && m.TokenID == tokenID {
			result = append(result, copyMetadata(m))
		}
	}
	return result, nil
}

// copyMetadata copies the record including its attribute slice.
func copyMetadata(m *domain.NFTMetadataRecord) *domain.NFTMetadataRecord {
	metaCopy := *m
	metaCopy.Attributes = make([]json.RawMessage, len(m.Attributes))
	for i, a := range m.Attributes {
		metaCopy.Attributes[i] = append(json.RawMessage(nil), a...)
	}
	return &metaCopy
}

var _ storage.NFTMetadataStore = (*NFTMetadataStore)(nil)
