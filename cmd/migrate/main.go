// Package main applies the embedded store migrations and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"evm-token-gateway/internal/config"
	"evm-token-gateway/internal/logging"
	"evm-token-gateway/internal/storage/backend"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.PathEnv), ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	storeURI := flag.String("store-uri", cfg.Store.URI, "Store URI (postgres://, clickhouse://); defaults to STORE_URI")
	timeout := flag.Duration("timeout", 2*time.Minute, "Migration timeout")
	flag.Parse()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.With(zap.String("component", "migrate"))

	if *storeURI == "" {
		log.Fatal("--store-uri or STORE_URI is required")
	}

	kind, err := backend.KindOf(*storeURI)
	if err != nil {
		log.Fatal("invalid store uri", zap.Error(err))
	}
	if kind == backend.KindMemory {
		log.Info("memory store has no schema, nothing to do")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	b, err := backend.Open(ctx, *storeURI, true)
	if err != nil {
		log.Fatal("migration failed", zap.String("backend", string(kind)), zap.Error(err))
	}
	defer b.Close()

	log.Info("migrations applied",
		zap.String("backend", string(kind)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
