package gateway

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// failingListStore fails every read.
type failingListStore struct{ storage.TransferRecordStore }

func (failingListStore) List(context.Context, int) ([]*domain.TransferRecord, error) {
	return nil, errStoreDown
}

func TestListTransfers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	records, err := f.svc.ListTransfers(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	for i := 1; i <= 3; i++ {
		require.NoError(t, f.stores.Transfers.Insert(ctx, &domain.TransferRecord{
			From: "0x1", To: "0x2", Amount: domain.NewAmount(uint64(i)),
			TransactionHash: fmt.Sprintf("0x%064x", i),
		}))
	}

	records, err = f.svc.ListTransfers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1", records[0].Amount.String())

	records, err = f.svc.ListTransfers(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = f.svc.ListTransfers(ctx, -1)
	assert.Equal(t, KindInvalidRequest, KindOf(err))
}

func TestListTransfers_StoreFailure(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Stores.Transfers = failingListStore{o.Stores.Transfers}
	})

	_, err := f.svc.ListTransfers(context.Background(), 10)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestMetadataHistory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.chain.SetTokenURI(mustAddress(t, nftContract), big.NewInt(10), metadataURI)
	f.content.Documents[metadataURI] = []byte(`{"name":"n","description":"d","image":"i"}`)

	for range 2 {
		_, err := f.svc.GetMetadata(ctx, nftContract, "10")
		require.NoError(t, err)
	}

	// Lowercase address and a leading-zero token id name the same token.
	records, err := f.svc.MetadataHistory(ctx, strings.ToLower(nftContract), "010")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "10", records[0].TokenID)
	assert.Equal(t, mustAddress(t, nftContract).Hex(), records[0].ContractAddress)

	records, err = f.svc.MetadataHistory(ctx, nftContract, "11")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.svc.MetadataHistory(ctx, "nope", "1")
	assert.Equal(t, KindInvalidRequest, KindOf(err))
	_, err = f.svc.MetadataHistory(ctx, nftContract, "1_0")
	assert.Equal(t, KindInvalidRequest, KindOf(err))
}

func TestContentHistory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.content.Contents[testCID] = []byte("v1")

	_, err := f.svc.GetContent(ctx, testCID)
	require.NoError(t, err)

	records, err := f.svc.ContentHistory(ctx, testCID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "v1", records[0].Text)

	_, err = f.svc.ContentHistory(ctx, "not-a-cid")
	assert.Equal(t, KindInvalidRequest, KindOf(err))
	assert.NotContains(t, f.content.CallLog(), "Cat not-a-cid")
}
