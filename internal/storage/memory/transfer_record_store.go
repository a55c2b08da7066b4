package memory

import (
	"context"
	"fmt"
	"sync"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// TransferRecordStore is an in-memory implementation of storage.TransferRecordStore.
type TransferRecordStore struct {
	mu     sync.RWMutex
	log    []*domain.TransferRecord          // insertion order
	byHash map[string]*domain.TransferRecord // keyed by transaction_hash
}

// NewTransferRecordStore creates a new in-memory transfer record store.
func NewTransferRecordStore() *TransferRecordStore {
	return &TransferRecordStore{
		byHash: make(map[string]*domain.TransferRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if transaction_hash exists.
func (s *TransferRecordStore) Insert(_ context.Context, r *domain.TransferRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[r.TransactionHash]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *r
	s.log = append(s.log, &recCopy)
	s.byHash[r.TransactionHash] = &recCopy
	return nil
}

// GetByHash retrieves a record by transaction hash. Returns ErrNotFound if not exists.
func (s *TransferRecordStore) GetByHash(_ context.Context, txHash string) (*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byHash[txHash]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *r
	return &recCopy, nil
}

// List returns up to limit records in insertion order.
func (s *TransferRecordStore) List(_ context.Context, limit int) ([]*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.log)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]*domain.TransferRecord, 0, n)
	for _, r := range s.log[:n] {
		recCopy := *r
		result = append(result, &recCopy)
	}
	return result, nil
}

var _ storage.TransferRecordStore = (*TransferRecordStore)(nil)
