package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// TransferRecordStore implements storage.TransferRecordStore using ClickHouse.
type TransferRecordStore struct {
	conn *Conn
}

// NewTransferRecordStore creates a new TransferRecordStore.
func NewTransferRecordStore(conn *Conn) *TransferRecordStore {
	return &TransferRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransferRecordStore = (*TransferRecordStore)(nil)

// Insert adds a new record. MergeTree does not enforce uniqueness, so the
// transaction hash is checked before the insert.
func (s *TransferRecordStore) Insert(ctx context.Context, r *domain.TransferRecord) (err error) {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	start := time.Now()
	defer func() { observe("insert_transfer", start, err) }()

	exists, err := s.exists(ctx, r.TransactionHash)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO transfer_records (
			id, from_address, to_address, amount, transaction_hash, created_at
		) VALUES (toUUID(?), ?, ?, toUInt256(?), ?, ?)
	`,
		id.String(),
		r.From,
		r.To,
		r.Amount.String(),
		r.TransactionHash,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer record: %w", err)
	}
	return nil
}

// GetByHash retrieves a record by transaction hash. Returns ErrNotFound if not exists.
func (s *TransferRecordStore) GetByHash(ctx context.Context, txHash string) (*domain.TransferRecord, error) {
	query := `
		SELECT from_address, to_address, toString(amount), transaction_hash, created_at
		FROM transfer_records
		WHERE transaction_hash = ?
		ORDER BY created_at, id
		LIMIT 1
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, txHash)
	observe("get_transfer", start, err)
	if err != nil {
		return nil, fmt.Errorf("get transfer record by hash: %w", err)
	}
	defer rows.Close()

	records, err := scanTransferRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// List returns up to limit records in insertion order.
func (s *TransferRecordStore) List(ctx context.Context, limit int) ([]*domain.TransferRecord, error) {
	query := `
		SELECT from_address, to_address, toString(amount), transaction_hash, created_at
		FROM transfer_records
		ORDER BY created_at, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfer records: %w", err)
	}
	defer rows.Close()

	return scanTransferRecords(rows)
}

// exists checks if a record with the given transaction hash exists.
func (s *TransferRecordStore) exists(ctx context.Context, txHash string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM transfer_records WHERE transaction_hash = ?`, txHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanTransferRecords scans multiple rows.
func scanTransferRecords(rows rowScanner) ([]*domain.TransferRecord, error) {
	var records []*domain.TransferRecord

	for rows.Next() {
		var r domain.TransferRecord
		var amount string

		if err := rows.Scan(&r.From, &r.To, &amount, &r.TransactionHash, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer record: %w", err)
		}

		a, err := domain.ParseAmount(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount: %w", err)
		}
		r.Amount = a
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}
