package gateway

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/evm"
	"evm-token-gateway/internal/observability"
)

// TransferResult is the outcome of a broadcast transfer.
type TransferResult struct {
	// TransactionHash is the full 32-byte hash in 0x-prefixed hex, so a node
	// answering "0xdead" yields the zero-padded 66-character form.
	TransactionHash string
	// PersistErr is set when the record could not be stored after the
	// broadcast succeeded. The transfer itself still succeeded.
	PersistErr error
}

// SubmitTransfer sends request.Amount of the configured token from
// request.From to request.To.
//
// The steps run strictly in order: gas price, gas estimate, sign, broadcast,
// persist. Nothing is retried and identical requests produce distinct
// transactions.
func (s *Service) SubmitTransfer(ctx context.Context, req domain.TransferRequest) (res *TransferResult, err error) {
	log := s.log.With(zap.String("component", "transfer"))
	defer func() {
		switch {
		case err != nil:
			observability.RecordTransfer("failed")
		case res.PersistErr != nil:
			observability.RecordTransfer("persist_warning")
		default:
			observability.RecordTransfer("success")
		}
	}()

	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, invalid("validate", "%s required", strings.Join(missing, ", "))
	}
	from, err := domain.ParseAddress(req.From)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "validate", Err: err}
	}

	callCtx, cancel := s.callCtx(ctx)
	gasPrice, err := s.chain.GasPrice(callCtx)
	cancel()
	if err != nil {
		return nil, wrap(KindChainUnavailable, "gas price", err)
	}

	if s.tokenContract == nil {
		return nil, &Error{Kind: KindEstimationFailed, Op: "estimate gas", Err: errors.New("token contract address not configured")}
	}
	token := *s.tokenContract

	data, err := evm.EncodeTransfer(to, req.Amount.ToBig())
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Op: "encode transfer", Err: err}
	}

	callCtx, cancel = s.callCtx(ctx)
	gas, err := s.chain.EstimateGas(callCtx, evm.CallMsg{
		From:     from,
		To:       &token,
		Data:     data,
		GasPrice: gasPrice,
	})
	cancel()
	if err != nil {
		return nil, wrap(KindEstimationFailed, "estimate gas", err)
	}

	// The token contract is the recipient; it moves the tokens to req.To.
	env := evm.Envelope{
		From:     from,
		To:       token,
		Data:     data,
		Gas:      gas,
		GasPrice: gasPrice,
	}

	callCtx, cancel = s.callCtx(ctx)
	tx, err := s.chain.SignTransaction(callCtx, env)
	cancel()
	if err != nil {
		return nil, wrap(KindSigningFailed, "sign", err)
	}

	callCtx, cancel = s.callCtx(ctx)
	hash, err := s.chain.SendTransaction(callCtx, tx)
	cancel()
	if err != nil {
		return nil, wrap(KindBroadcastFailed, "broadcast", err)
	}

	res = &TransferResult{TransactionHash: hash.Hex()}
	log.Info("transfer broadcast",
		zap.String("tx_hash", res.TransactionHash),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.String("amount", req.Amount.String()),
		zap.Uint64("gas", gas),
	)

	record := &domain.TransferRecord{
		From:            strings.TrimSpace(req.From),
		To:              strings.TrimSpace(req.To),
		Amount:          req.Amount,
		TransactionHash: res.TransactionHash,
		CreatedAt:       s.nowMs(),
	}

	persistCtx, cancel := s.persistCtx(ctx)
	defer cancel()
	if perr := s.stores.Transfers.Insert(persistCtx, record); perr != nil {
		res.PersistErr = wrap(KindPersistenceFailed, "persist transfer", perr)
		observability.RecordPersistenceFailure("transfer_records")
		log.Warn("transfer broadcast but not persisted",
			zap.String("tx_hash", res.TransactionHash),
			zap.Error(perr),
		)
	}

	return res, nil
}
