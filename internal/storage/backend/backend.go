// Package backend opens the record stores named by a store URI.
package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"evm-token-gateway/internal/storage"
	chstore "evm-token-gateway/internal/storage/clickhouse"
	"evm-token-gateway/internal/storage/memory"
	pgstore "evm-token-gateway/internal/storage/postgres"
)

// Kind identifies a store backend.
type Kind string

const (
	KindPostgres   Kind = "postgres"
	KindClickHouse Kind = "clickhouse"
	KindMemory     Kind = "memory"
)

// Backend is an open set of record stores.
type Backend struct {
	Kind   Kind
	Stores storage.Stores
	close  func() error
}

// Close releases the backend connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// KindOf returns the backend selected by the scheme of uri.
func KindOf(uri string) (Kind, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", fmt.Errorf("parse store uri: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return KindPostgres, nil
	case "clickhouse":
		return KindClickHouse, nil
	case "memory":
		return KindMemory, nil
	default:
		return "", fmt.Errorf("unsupported store uri scheme %q", u.Scheme)
	}
}

// Open connects to the backend named by uri. When migrate is set the
// embedded schema migrations are applied before the stores are returned.
func Open(ctx context.Context, uri string, migrate bool) (*Backend, error) {
	kind, err := KindOf(uri)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMemory:
		return &Backend{Kind: kind, Stores: memory.NewStores()}, nil

	case KindPostgres:
		pool, err := pgstore.NewPool(ctx, uri)
		if err != nil {
			return nil, err
		}
		if migrate {
			if _, err := pool.Migrate(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return &Backend{
			Kind:   kind,
			Stores: pgstore.NewStores(pool),
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case KindClickHouse:
		if migrate {
			if err := chstore.EnsureDatabase(ctx, uri); err != nil {
				return nil, err
			}
		}
		conn, err := chstore.NewConn(ctx, uri)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := conn.Migrate(ctx); err != nil {
				conn.Close()
				return nil, fmt.Errorf("migrate clickhouse: %w", err)
			}
		}
		return &Backend{Kind: kind, Stores: chstore.NewStores(conn), close: conn.Close}, nil
	}

	return nil, fmt.Errorf("unsupported store backend %q", kind)
}
