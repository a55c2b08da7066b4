package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contentstub "evm-token-gateway/internal/content/stub"
	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/evm/stub"
	"evm-token-gateway/internal/gateway"
	"evm-token-gateway/internal/storage"
	"evm-token-gateway/internal/storage/memory"
)

const (
	tokenContract = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	nftContract   = "0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D"
	wallet        = "0x00000000219ab540356cBB839Cbe05303d7705Fa"
	testCID       = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

type failingTransferStore struct{ storage.TransferRecordStore }

func (failingTransferStore) Insert(context.Context, *domain.TransferRecord) error {
	return errors.New("connection refused")
}

type testServer struct {
	router  http.Handler
	chain   *stub.ChainClient
	content *contentstub.Fetcher
	stores  storage.Stores
}

func newTestServer(t *testing.T, mutate func(*gateway.Options)) *testServer {
	t.Helper()

	s := &testServer{
		chain:   stub.NewChainClient(),
		content: contentstub.NewFetcher(),
		stores:  memory.NewStores(),
	}
	opts := gateway.Options{
		Chain:         s.chain,
		Content:       s.content,
		Stores:        s.stores,
		TokenContract: tokenContract,
		CallTimeout:   time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s.stores = opts.Stores

	svc, err := gateway.New(opts)
	require.NoError(t, err)
	s.router = NewRouter(svc, Options{Metrics: true})
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodGet, "/health", "")

	rec := s.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec)["error"])
}

func TestTokenBalance(t *testing.T) {
	s := newTestServer(t, nil)
	s.chain.SetBalance(common.HexToAddress(tokenContract), common.HexToAddress(wallet), big.NewInt(1000))

	rec := s.do(http.MethodGet, "/token-balance?contractAddress="+tokenContract+"&walletAddress="+wallet, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"balance":1000}`, rec.Body.String())
}

func TestTokenBalance_LargeValueIsExact(t *testing.T) {
	s := newTestServer(t, nil)
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	s.chain.SetBalance(common.HexToAddress(tokenContract), common.HexToAddress(wallet), huge)

	rec := s.do(http.MethodGet, "/token-balance?contractAddress="+tokenContract+"&walletAddress="+wallet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"balance":123456789012345678901234567890}`, rec.Body.String())
}

func TestTokenBalance_MissingParams(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{
		"/token-balance",
		"/token-balance?contractAddress=" + tokenContract,
		"/token-balance?walletAddress=" + wallet,
	} {
		rec := s.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "contractAddress and walletAddress are required.", decode(t, rec)["error"])
	}
	assert.Empty(t, s.chain.CallLog())
}

func TestTokenBalance_InvalidAddress(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/token-balance?contractAddress=nope&walletAddress="+wallet, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(gateway.KindInvalidRequest), decode(t, rec)["kind"])
	assert.Empty(t, s.chain.CallLog())
}

func TestTokenBalance_NodeFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.chain.BalanceErr = errors.New("execution reverted")

	rec := s.do(http.MethodGet, "/token-balance?contractAddress="+tokenContract+"&walletAddress="+wallet, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Failed to retrieve token balance", body["error"])
	assert.Equal(t, "execution reverted", body["details"])
}

func TestNFTMetadata(t *testing.T) {
	s := newTestServer(t, nil)
	doc := `{"name":"Ape","description":"d","image":"ipfs://img","attributes":[]}`
	s.chain.SetTokenURI(common.HexToAddress(nftContract), big.NewInt(7), "ipfs://QmMeta/7")
	s.content.Documents["ipfs://QmMeta/7"] = []byte(doc)

	rec := s.do(http.MethodGet, "/nft-metadata?contractAddress="+nftContract+"&tokenId=7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, doc, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, rec.Header().Get(persistenceWarningHeader))

	records, err := s.stores.Metadata.GetByToken(context.Background(), common.HexToAddress(nftContract).Hex(), "7")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNFTMetadata_IncompleteDocumentWarns(t *testing.T) {
	s := newTestServer(t, nil)
	s.chain.SetTokenURI(common.HexToAddress(nftContract), big.NewInt(8), "ipfs://QmMeta/8")
	s.content.Documents["ipfs://QmMeta/8"] = []byte(`{"name":"only a name"}`)

	rec := s.do(http.MethodGet, "/nft-metadata?contractAddress="+nftContract+"&tokenId=8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(persistenceWarningHeader))
}

func TestNFTMetadata_MissingParams(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/nft-metadata?contractAddress="+nftContract, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "contractAddress and tokenId are required.", decode(t, rec)["error"])
	assert.Empty(t, s.chain.CallLog())
	assert.Empty(t, s.content.CallLog())
}

func TestNFTMetadata_FetchFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.chain.SetTokenURI(common.HexToAddress(nftContract), big.NewInt(9), "https://example.invalid/9")
	s.content.FetchErr = errors.New("dial tcp: no such host")

	rec := s.do(http.MethodGet, "/nft-metadata?contractAddress="+nftContract+"&tokenId=9", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Failed to retrieve NFT metadata", body["error"])
	assert.Equal(t, string(gateway.KindFetchFailed), body["kind"])
}

func TestIPFS(t *testing.T) {
	s := newTestServer(t, nil)
	s.content.Contents[testCID] = []byte("hello world\n")

	rec := s.do(http.MethodGet, "/ipfs/"+testCID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hello world\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	records, err := s.stores.IPFS.GetByHash(context.Background(), testCID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hello world\n", records[0].Text)
}

func TestIPFS_InvalidHash(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/ipfs/not-a-cid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.content.CallLog())
}

func TestIPFS_FetchFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.content.CatErr = errors.New("gateway timeout")

	rec := s.do(http.MethodGet, "/ipfs/"+testCID, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to retrieve from IPFS", decode(t, rec)["error"])
}

func TestTransfer(t *testing.T) {
	s := newTestServer(t, nil)
	dead := common.HexToHash("0xdead")
	s.chain.SendHash = &dead

	rec := s.do(http.MethodPost, "/transfer", `{"from":"0x1","to":"0x2","amount":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, dead.Hex(), body["transactionHash"])
	assert.NotContains(t, body, "warning")

	records, err := s.stores.Transfers.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, dead.Hex(), records[0].TransactionHash)

	lookup := s.do(http.MethodGet, "/transfers/"+dead.Hex(), "")
	require.Equal(t, http.StatusOK, lookup.Code)
	stored := decode(t, lookup)
	assert.Equal(t, "0x1", stored["from"])
	assert.Equal(t, float64(5), stored["amount"])
}

func TestTransfer_PersistFailureWarns(t *testing.T) {
	s := newTestServer(t, func(o *gateway.Options) {
		o.Stores.Transfers = failingTransferStore{o.Stores.Transfers}
	})

	rec := s.do(http.MethodPost, "/transfer", `{"from":"0x1","to":"0x2","amount":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["transactionHash"])
	assert.Contains(t, body["warning"], "connection refused")
}

func TestTransfer_BadRequests(t *testing.T) {
	tests := map[string]string{
		"not json":       `{"from":`,
		"missing to":     `{"from":"0x1","amount":5}`,
		"missing amount": `{"from":"0x1","to":"0x2"}`,
		"negative":       `{"from":"0x1","to":"0x2","amount":-1}`,
		"bad address":    `{"from":"wallet","to":"0x2","amount":1}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, nil)

			rec := s.do(http.MethodPost, "/transfer", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			out := decode(t, rec)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["error"])
			assert.Empty(t, s.chain.CallLog())
		})
	}
}

func TestTransfer_BroadcastFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.chain.SendErr = errors.New("nonce too low")

	rec := s.do(http.MethodPost, "/transfer", `{"from":"0x1","to":"0x2","amount":5}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "nonce too low")

	records, _ := s.stores.Transfers.List(context.Background(), 0)
	assert.Empty(t, records)
}

func TestTransferLookup_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/transfers/0xabc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransfer_LeadingZeroAmountIsDecimal(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/transfer", `{"from":"0x1","to":"0x2","amount":"010"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	records, err := s.stores.Transfers.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10", records[0].Amount.String())

	rec = s.do(http.MethodPost, "/transfer", `{"from":"0x1","to":"0x2","amount":"1_000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransfers(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/transfers", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"transfers":[]}`, rec.Body.String())

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/transfer", `{"from":"0x1","to":"0x2","amount":5}`).Code)

	rec = s.do(http.MethodGet, "/transfers?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	transfers, ok := decode(t, rec)["transfers"].([]any)
	require.True(t, ok)
	require.Len(t, transfers, 1)
	assert.Equal(t, "0x2", transfers[0].(map[string]any)["to"])

	for _, bad := range []string{"-1", "ten"} {
		rec = s.do(http.MethodGet, "/transfers?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestNFTMetadataRecords(t *testing.T) {
	s := newTestServer(t, nil)
	s.chain.SetTokenURI(common.HexToAddress(nftContract), big.NewInt(7), "ipfs://QmMeta/7")
	s.content.Documents["ipfs://QmMeta/7"] = []byte(`{"name":"Ape","description":"d","image":"ipfs://img","attributes":[{"value":1}]}`)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/nft-metadata?contractAddress="+nftContract+"&tokenId=7", "").Code)

	rec := s.do(http.MethodGet, "/nft-metadata/records?contractAddress="+nftContract+"&tokenId=7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	records, ok := decode(t, rec)["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	first := records[0].(map[string]any)
	assert.Equal(t, "Ape", first["name"])
	assert.Equal(t, "ipfs://img", first["imageUrl"])
	assert.Equal(t, "7", first["tokenId"])

	rec = s.do(http.MethodGet, "/nft-metadata/records?contractAddress="+nftContract, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIPFSRecords(t *testing.T) {
	s := newTestServer(t, nil)
	s.content.Contents[testCID] = []byte("payload")

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ipfs/"+testCID, "").Code)

	rec := s.do(http.MethodGet, "/ipfs/"+testCID+"/records", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	records, ok := decode(t, rec)["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "payload", records[0].(map[string]any)["text"])

	rec = s.do(http.MethodGet, "/ipfs/not-a-cid/records", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
