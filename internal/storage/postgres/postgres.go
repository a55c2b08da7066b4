// Package postgres stores the gateway record logs in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"evm-token-gateway/internal/observability"
	"evm-token-gateway/internal/storage"
	"evm-token-gateway/internal/storage/migrations"
)

const (
	defaultMaxConns          = 10
	defaultHealthCheckPeriod = 30 * time.Second
)

// Pool is a pgx connection pool bound to the record schema.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and verifies the server answers. Pool limits in the
// dsn (pool_max_conns, ...) take precedence over the defaults.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnConfig.ConnectTimeout == 0 {
		cfg.ConnConfig.ConnectTimeout = 10 * time.Second
	}
	if !strings.Contains(dsn, "pool_max_conns") {
		cfg.MaxConns = defaultMaxConns
	}
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Migrate applies pending schema migrations and returns their versions.
func (p *Pool) Migrate(ctx context.Context) ([]string, error) {
	return migrations.RunPostgresMigrations(ctx, p.Pool)
}

// NewStores creates all record stores backed by p.
func NewStores(p *Pool) storage.Stores {
	return storage.Stores{
		Transfers: NewTransferRecordStore(p),
		Metadata:  NewNFTMetadataStore(p),
		IPFS:      NewIPFSDataStore(p),
	}
}

// SQLSTATE codes mapped onto storage errors.
const (
	codeUniqueViolation = "23505"
	codeNotNull         = "23502"
	codeCheckViolation  = "23514"
)

// translate maps driver errors onto storage sentinels. Unknown errors are
// wrapped with op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return storage.ErrDuplicateKey
		case codeNotNull, codeCheckViolation:
			return fmt.Errorf("%w: %s", storage.ErrInvalidInput, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// observe records query duration under operation. Missing rows are not errors.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
