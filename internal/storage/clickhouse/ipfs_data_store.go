package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// IPFSDataStore implements storage.IPFSDataStore using ClickHouse.
type IPFSDataStore struct {
	conn *Conn
}

// NewIPFSDataStore creates a new IPFSDataStore.
func NewIPFSDataStore(conn *Conn) *IPFSDataStore {
	return &IPFSDataStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IPFSDataStore = (*IPFSDataStore)(nil)

// Insert appends a content record.
func (s *IPFSDataStore) Insert(ctx context.Context, d *domain.IPFSDataRecord) (err error) {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	start := time.Now()
	defer func() { observe("insert_ipfs_data", start, err) }()

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO ipfs_data (id, hash, text, created_at) VALUES (toUUID(?), ?, ?, ?)
	`, id.String(), d.Hash, d.Text, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ipfs data: %w", err)
	}
	return nil
}

// GetByHash retrieves every record stored for hash, in insertion order.
func (s *IPFSDataStore) GetByHash(ctx context.Context, hash string) ([]*domain.IPFSDataRecord, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT hash, text, created_at
		FROM ipfs_data
		WHERE hash = ?
		ORDER BY created_at, id
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("get ipfs data: %w", err)
	}
	defer rows.Close()

	var result []*domain.IPFSDataRecord
	for rows.Next() {
		var d domain.IPFSDataRecord
		if err := rows.Scan(&d.Hash, &d.Text, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ipfs data: %w", err)
		}
		result = append(result, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
