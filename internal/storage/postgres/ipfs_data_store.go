package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// IPFSDataStore appends retrieved content to ipfs_data.
type IPFSDataStore struct {
	pool *Pool
}

func NewIPFSDataStore(pool *Pool) *IPFSDataStore {
	return &IPFSDataStore{pool: pool}
}

var _ storage.IPFSDataStore = (*IPFSDataStore)(nil)

func (s *IPFSDataStore) Insert(ctx context.Context, d *domain.IPFSDataRecord) (err error) {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	start := time.Now()
	defer func() { observe("insert_ipfs_data", start, err) }()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ipfs_data (hash, text, created_at) VALUES ($1, $2, $3)`,
		d.Hash, d.Text, d.CreatedAt,
	)
	return translate("insert ipfs data", err)
}

func (s *IPFSDataStore) GetByHash(ctx context.Context, hash string) ([]*domain.IPFSDataRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT hash, text, created_at FROM ipfs_data WHERE hash = $1 ORDER BY id`, hash)
	if err != nil {
		return nil, translate("get ipfs data", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.IPFSDataRecord, error) {
		var d domain.IPFSDataRecord
		err := row.Scan(&d.Hash, &d.Text, &d.CreatedAt)
		return &d, err
	})
	if err != nil {
		return nil, translate("get ipfs data", err)
	}
	return records, nil
}
