package gateway

import (
	"context"
	"math/big"
	"strings"

	"evm-token-gateway/internal/domain"
)

// GetBalance returns the ERC-20 balance of wallet in contract, exactly as
// reported by the node.
func (s *Service) GetBalance(ctx context.Context, contract, wallet string) (*big.Int, error) {
	contract, wallet = strings.TrimSpace(contract), strings.TrimSpace(wallet)
	if contract == "" || wallet == "" {
		return nil, invalid("validate", "contractAddress and walletAddress are required")
	}
	token, err := domain.ParseAddress(contract)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}
	owner, err := domain.ParseAddress(wallet)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}

	callCtx, cancel := s.callCtx(ctx)
	defer cancel()

	balance, err := s.chain.TokenBalance(callCtx, token, owner)
	if err != nil {
		return nil, classifyRead("balance", err)
	}
	return balance, nil
}
