package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

const transferColumns = `from_address, to_address, amount::text, transaction_hash, created_at`

// TransferRecordStore keeps transfer records in transfer_records.
// transaction_hash carries a unique index.
type TransferRecordStore struct {
	pool *Pool
}

func NewTransferRecordStore(pool *Pool) *TransferRecordStore {
	return &TransferRecordStore{pool: pool}
}

var _ storage.TransferRecordStore = (*TransferRecordStore)(nil)

func (s *TransferRecordStore) Insert(ctx context.Context, r *domain.TransferRecord) (err error) {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	start := time.Now()
	defer func() { observe("insert_transfer", start, err) }()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO transfer_records (from_address, to_address, amount, transaction_hash, created_at)
		 VALUES ($1, $2, $3::numeric, $4, $5)`,
		r.From, r.To, r.Amount.String(), r.TransactionHash, r.CreatedAt,
	)
	return translate("insert transfer record", err)
}

func (s *TransferRecordStore) GetByHash(ctx context.Context, txHash string) (r *domain.TransferRecord, err error) {
	start := time.Now()
	defer func() { observe("get_transfer", start, err) }()

	rows, err := s.pool.Query(ctx,
		`SELECT `+transferColumns+` FROM transfer_records WHERE transaction_hash = $1`, txHash)
	if err != nil {
		return nil, translate("get transfer record", err)
	}
	r, err = pgx.CollectExactlyOneRow(rows, scanTransferRecord)
	if err != nil {
		return nil, translate("get transfer record", err)
	}
	return r, nil
}

func (s *TransferRecordStore) List(ctx context.Context, limit int) ([]*domain.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_records ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("list transfer records", err)
	}
	records, err := pgx.CollectRows(rows, scanTransferRecord)
	if err != nil {
		return nil, translate("list transfer records", err)
	}
	return records, nil
}

func scanTransferRecord(row pgx.CollectableRow) (*domain.TransferRecord, error) {
	var (
		r      domain.TransferRecord
		amount string
	)
	if err := row.Scan(&r.From, &r.To, &amount, &r.TransactionHash, &r.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if r.Amount, err = domain.ParseAmount(amount); err != nil {
		return nil, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	return &r, nil
}
