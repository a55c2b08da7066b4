// Package main runs the token gateway HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"evm-token-gateway/internal/config"
	"evm-token-gateway/internal/content"
	"evm-token-gateway/internal/evm"
	"evm-token-gateway/internal/gateway"
	"evm-token-gateway/internal/httpapi"
	"evm-token-gateway/internal/logging"
	"evm-token-gateway/internal/storage/backend"
)

const (
	shutdownTimeout = 30 * time.Second
	probeTimeout    = 10 * time.Second
)

func main() {
	cfg, err := config.Load(os.Getenv(config.PathEnv), ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, root *zap.Logger) error {
	log := root.With(zap.String("component", "server"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chain, err := dialChain(ctx, cfg, root)
	if err != nil {
		return err
	}
	defer chain.Close()

	probeChain(ctx, chain, log)

	fetcher := content.NewFetcher(
		content.WithGateway(cfg.IPFS.GatewayURL),
		content.WithAPI(cfg.IPFS.APIURL),
		content.WithMaxBytes(cfg.IPFS.MaxBytes),
		content.WithLogger(root.With(zap.String("component", "content"))),
	)

	stores, err := backend.Open(ctx, cfg.Store.URI, true)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer stores.Close()
	log.Info("store ready", zap.String("backend", string(stores.Kind)))

	svc, err := gateway.New(gateway.Options{
		Chain:         chain,
		Content:       fetcher,
		Stores:        stores.Stores,
		TokenContract: cfg.Chain.TokenContract,
		CallTimeout:   cfg.Server.CallTimeout,
		Logger:        root,
	})
	if err != nil {
		return err
	}
	if cfg.Chain.TokenContract == "" {
		log.Warn("TOKEN_CONTRACT_ADDRESS not set, transfers will fail")
	}

	router := httpapi.NewRouter(svc, httpapi.Options{
		Logger:  root,
		Metrics: cfg.Metrics.Enabled,
		Debug:   cfg.Log.Development,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// dialChain connects to the node with the configured signer and chain id.
func dialChain(ctx context.Context, cfg config.Config, log *zap.Logger) (*evm.Client, error) {
	var opts []evm.Option

	if cfg.Chain.PrivateKey != "" {
		signer, err := evm.NewSigner(cfg.Chain.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("load signing key: %w", err)
		}
		opts = append(opts, evm.WithSigner(signer))
	}

	if cfg.Chain.ChainID > 0 {
		opts = append(opts, evm.WithChainID(big.NewInt(cfg.Chain.ChainID)))
	}

	chain, err := evm.Dial(ctx, cfg.RPC.URL, evm.DialOptions{
		HTTP:   []evm.ClientOption{evm.WithTimeout(cfg.RPC.Timeout)},
		Logger: log.With(zap.String("component", "rpc")),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return chain, nil
}

// probeChain logs the signing account and node connectivity once.
// Failures are not fatal.
func probeChain(ctx context.Context, chain *evm.Client, log *zap.Logger) {
	if addr, ok := chain.SignerAddress(); ok {
		log.Info("signer loaded", zap.String("address", addr.Hex()))
	} else {
		log.Warn("PRIVATE_KEY not set, transfers will fail to sign")
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	listening, err := chain.Listening(ctx)
	if err != nil {
		log.Warn("node probe failed", zap.Error(err))
		return
	}
	chainID, err := chain.ChainID(ctx)
	if err != nil {
		log.Warn("node reachable but chain id unavailable", zap.Bool("listening", listening), zap.Error(err))
		return
	}
	log.Info("connected to node", zap.Bool("listening", listening), zap.String("chain_id", chainID.String()))
}
