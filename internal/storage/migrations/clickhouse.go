package migrations

import (
	"context"
	"fmt"
)

// ClickhouseExecer is satisfied by clickhouse-go driver.Conn.
type ClickhouseExecer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// RunClickhouseMigrations executes every migration statement by statement,
// since the native protocol accepts one statement per Exec. Statements must
// be idempotent. The target database must already exist.
func RunClickhouseMigrations(ctx context.Context, conn ClickhouseExecer) error {
	migrations, err := Load("clickhouse")
	if err != nil {
		return err
	}

	for _, m := range migrations {
		for i, stmt := range Statements(m.SQL) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s statement %d: %w", m.Version, i+1, err)
			}
		}
	}
	return nil
}
