package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresDB is satisfied by pgxpool.Pool and pgx.Conn.
type PostgresDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RunPostgresMigrations applies every migration not yet recorded in
// schema_migrations. Each migration runs in its own transaction together
// with its version row. Returns the versions applied by this call.
func RunPostgresMigrations(ctx context.Context, db PostgresDB) ([]string, error) {
	migrations, err := Load("postgres")
	if err != nil {
		return nil, err
	}

	if err := inTx(ctx, db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createVersionTable)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		var fresh bool
		err := inTx(ctx, db, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`,
				m.Version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			fresh = true
			_, err = tx.Exec(ctx, m.SQL)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		if fresh {
			applied = append(applied, m.Version)
		}
	}
	return applied, nil
}

func inTx(ctx context.Context, db PostgresDB, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
