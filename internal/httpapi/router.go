// Package httpapi exposes the gateway workflows over HTTP.
package httpapi

import (
	"context"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/gateway"
	"evm-token-gateway/internal/observability"
)

// Gateway is the workflow surface served by the handlers.
type Gateway interface {
	SubmitTransfer(ctx context.Context, req domain.TransferRequest) (*gateway.TransferResult, error)
	GetMetadata(ctx context.Context, contract, tokenID string) (*gateway.MetadataResult, error)
	GetBalance(ctx context.Context, contract, wallet string) (*big.Int, error)
	GetContent(ctx context.Context, hash string) (*gateway.ContentResult, error)
	GetTransfer(ctx context.Context, txHash string) (*domain.TransferRecord, error)
	ListTransfers(ctx context.Context, limit int) ([]*domain.TransferRecord, error)
	MetadataHistory(ctx context.Context, contract, tokenID string) ([]*domain.NFTMetadataRecord, error)
	ContentHistory(ctx context.Context, hash string) ([]*domain.IPFSDataRecord, error)
}

// Options configures the router.
type Options struct {
	Logger  *zap.Logger
	Metrics bool // expose GET /metrics
	Debug   bool // gin debug mode
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(gw Gateway, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(requestID())
	engine.Use(recovery(log))
	engine.Use(accessLog(log))
	engine.Use(metrics())

	h := &Handler{Gateway: gw, Logger: log}
	h.Register(engine)

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if opts.Metrics {
		engine.GET("/metrics", gin.WrapH(observability.Handler()))
	}

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "Route not found", nil)
	})

	return engine
}
