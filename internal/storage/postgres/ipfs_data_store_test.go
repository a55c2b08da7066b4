package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evm-token-gateway/internal/domain"
)

func TestIPFSDataStore_InsertAndGetByHash(t *testing.T) {
	pool := newTestPool(t)

	ctx := context.Background()
	store := NewIPFSDataStore(pool)

	hash := "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	require.NoError(t, store.Insert(ctx, &domain.IPFSDataRecord{Hash: hash, Text: "hello", CreatedAt: 1}))
	require.NoError(t, store.Insert(ctx, &domain.IPFSDataRecord{Hash: hash, Text: "world", CreatedAt: 2}))

	records, err := store.GetByHash(ctx, hash)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "hello", records[0].Text)
	assert.Equal(t, "world", records[1].Text)

	none, err := store.GetByHash(ctx, "QmOther")
	require.NoError(t, err)
	assert.Empty(t, none)
}
