package memory

import (
	"context"
	"fmt"
	"sync"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// IPFSDataStore is an in-memory implementation of storage.IPFSDataStore.
type IPFSDataStore struct {
	mu     sync.RWMutex
	byHash map[string][]*domain.IPFSDataRecord
}

// NewIPFSDataStore creates a new in-memory IPFS data store.
func NewIPFSDataStore() *IPFSDataStore {
	return &IPFSDataStore{
		byHash: make(map[string][]*domain.IPFSDataRecord),
	}
}

// Insert appends a content record.
func (s *IPFSDataStore) Insert(_ context.Context, d *domain.IPFSDataRecord) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dataCopy := *d
	s.byHash[d.Hash] = append(s.byHash[d.Hash], &dataCopy)
	return nil
}

// GetByHash retrieves every record stored for hash, in insertion order.
func (s *IPFSDataStore) GetByHash(_ context.Context, hash string) ([]*domain.IPFSDataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byHash[hash]
	result := make([]*domain.IPFSDataRecord, 0, len(records))
	for _, d := range records {
		dataCopy := *d
		result = append(result, &dataCopy)
	}
	return result, nil
}

var _ storage.IPFSDataStore = (*IPFSDataStore)(nil)
