// Package gateway implements the token gateway workflows: transfer submission,
// NFT metadata retrieval, balance lookup and IPFS content retrieval.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/evm"
	"evm-token-gateway/internal/storage"
)

// DefaultCallTimeout bounds every external call made by a workflow.
const DefaultCallTimeout = 30 * time.Second

// ChainClient is the subset of the node client the workflows use.
type ChainClient interface {
	TokenBalance(ctx context.Context, token, wallet common.Address) (*big.Int, error)
	TokenURI(ctx context.Context, nft common.Address, tokenID *big.Int) (string, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg evm.CallMsg) (uint64, error)
	SignTransaction(ctx context.Context, env evm.Envelope) (*types.Transaction, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

// ContentFetcher retrieves off-chain documents.
type ContentFetcher interface {
	// FetchJSON resolves uri and returns the JSON document unchanged.
	FetchJSON(ctx context.Context, uri string) ([]byte, error)
	// Cat returns the full payload addressed by an IPFS hash.
	Cat(ctx context.Context, hash string) ([]byte, error)
}

// Options configures Service.
type Options struct {
	Chain   ChainClient
	Content ContentFetcher
	Stores  storage.Stores

	// TokenContract is the ERC-20 contract transfers are sent to.
	// Empty disables transfers with EstimationFailed.
	TokenContract string

	// CallTimeout bounds each external call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// Service runs the gateway workflows. It is safe for concurrent use.
type Service struct {
	chain         ChainClient
	content       ContentFetcher
	stores        storage.Stores
	tokenContract *common.Address
	callTimeout   time.Duration
	log           *zap.Logger
	now           func() time.Time
}

// New validates opts and creates a Service. Every collaborator must be set.
func New(opts Options) (*Service, error) {
	switch {
	case opts.Chain == nil:
		return nil, errors.New("gateway: chain client is required")
	case opts.Content == nil:
		return nil, errors.New("gateway: content fetcher is required")
	case opts.Stores.Transfers == nil || opts.Stores.Metadata == nil || opts.Stores.IPFS == nil:
		return nil, errors.New("gateway: all record stores are required")
	}

	s := &Service{
		chain:       opts.Chain,
		content:     opts.Content,
		stores:      opts.Stores,
		callTimeout: opts.CallTimeout,
		log:         opts.Logger,
		now:         opts.Now,
	}
	if s.callTimeout <= 0 {
		s.callTimeout = DefaultCallTimeout
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	if opts.TokenContract != "" {
		addr, err := domain.ParseAddress(opts.TokenContract)
		if err != nil {
			return nil, fmt.Errorf("gateway: token contract: %w", err)
		}
		s.tokenContract = &addr
	}

	return s, nil
}

// callCtx derives the deadline of one external call.
func (s *Service) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

// persistCtx derives a context for writes that follow an irreversible side
// effect. It survives cancellation of the request.
func (s *Service) persistCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
}

func (s *Service) nowMs() int64 {
	return s.now().UnixMilli()
}

// classifyRead maps a read-only chain call failure to a kind.
func classifyRead(op string, err error) *Error {
	switch {
	case errors.Is(err, evm.ErrUnavailable), errors.Is(err, evm.ErrClientClosed), errors.Is(err, context.Canceled):
		return wrap(KindChainUnavailable, op, err)
	default:
		return wrap(KindContractCallFailed, op, err)
	}
}
