package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evm-token-gateway/internal/domain"
)

// Handler serves the gateway routes.
type Handler struct {
	Gateway Gateway
	Logger  *zap.Logger
}

// Register mounts the gateway routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/nft-metadata", h.getMetadata)
	r.GET("/nft-metadata/records", h.getMetadataHistory)
	r.GET("/token-balance", h.getBalance)
	r.GET("/ipfs/:hash", h.getContent)
	r.GET("/ipfs/:hash/records", h.getContentHistory)
	r.POST("/transfer", h.submitTransfer)
	r.GET("/transfers", h.listTransfers)
	r.GET("/transfers/:hash", h.getTransfer)
}

// getMetadata returns the NFT metadata document verbatim.
func (h *Handler) getMetadata(c *gin.Context) {
	contract := strings.TrimSpace(c.Query("contractAddress"))
	tokenID := strings.TrimSpace(c.Query("tokenId"))
	if contract == "" || tokenID == "" {
		writeError(c, http.StatusBadRequest, "contractAddress and tokenId are required.", nil)
		return
	}

	res, err := h.Gateway.GetMetadata(c.Request.Context(), contract, tokenID)
	if err != nil {
		c.Error(err)
		writeWorkflowError(c, "Failed to retrieve NFT metadata", err)
		return
	}

	if res.PersistErr != nil {
		c.Error(res.PersistErr)
		c.Header(persistenceWarningHeader, detailsOf(res.PersistErr))
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Document)
}

// getBalance returns {"balance": <integer>}.
func (h *Handler) getBalance(c *gin.Context) {
	contract := strings.TrimSpace(c.Query("contractAddress"))
	wallet := strings.TrimSpace(c.Query("walletAddress"))
	if contract == "" || wallet == "" {
		writeError(c, http.StatusBadRequest, "contractAddress and walletAddress are required.", nil)
		return
	}

	balance, err := h.Gateway.GetBalance(c.Request.Context(), contract, wallet)
	if err != nil {
		c.Error(err)
		writeWorkflowError(c, "Failed to retrieve token balance", err)
		return
	}

	// *big.Int encodes as a bare JSON number of any size.
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// getContent returns the IPFS payload as raw text.
func (h *Handler) getContent(c *gin.Context) {
	hash := strings.TrimSpace(c.Param("hash"))

	res, err := h.Gateway.GetContent(c.Request.Context(), hash)
	if err != nil {
		c.Error(err)
		writeWorkflowError(c, "Failed to retrieve from IPFS", err)
		return
	}

	if res.PersistErr != nil {
		c.Error(res.PersistErr)
		c.Header(persistenceWarningHeader, detailsOf(res.PersistErr))
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", res.Data)
}

// submitTransfer signs and broadcasts a token transfer.
func (h *Handler) submitTransfer(c *gin.Context) {
	var req domain.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, transferResponse{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, transferResponse{
			Success: false,
			Error:   "from, to and amount are required.",
		})
		return
	}

	res, err := h.Gateway.SubmitTransfer(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(statusOf(err), transferResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	resp := transferResponse{Success: true, TransactionHash: res.TransactionHash}
	if res.PersistErr != nil {
		c.Error(res.PersistErr)
		resp.Warning = "transaction broadcast but not recorded: " + detailsOf(res.PersistErr)
	}
	c.JSON(http.StatusOK, resp)
}

// getTransfer returns a stored transfer record.
func (h *Handler) getTransfer(c *gin.Context) {
	rec, err := h.Gateway.GetTransfer(c.Request.Context(), c.Param("hash"))
	if err != nil {
		c.Error(err)
		status := statusOf(err)
		if isNotFound(err) {
			status = http.StatusNotFound
		}
		writeError(c, status, "Failed to retrieve transfer", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// listTransfers returns {"transfers": [...]}, oldest first.
func (h *Handler) listTransfers(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, "limit must be a non-negative integer.", nil)
			return
		}
		limit = n
	}

	records, err := h.Gateway.ListTransfers(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		writeWorkflowError(c, "Failed to list transfers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": records})
}

// getMetadataHistory returns {"records": [...]} for one token.
func (h *Handler) getMetadataHistory(c *gin.Context) {
	contract := strings.TrimSpace(c.Query("contractAddress"))
	tokenID := strings.TrimSpace(c.Query("tokenId"))
	if contract == "" || tokenID == "" {
		writeError(c, http.StatusBadRequest, "contractAddress and tokenId are required.", nil)
		return
	}

	records, err := h.Gateway.MetadataHistory(c.Request.Context(), contract, tokenID)
	if err != nil {
		c.Error(err)
		writeWorkflowError(c, "Failed to retrieve NFT metadata records", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// getContentHistory returns {"records": [...]} for one IPFS hash.
func (h *Handler) getContentHistory(c *gin.Context) {
	records, err := h.Gateway.ContentHistory(c.Request.Context(), strings.TrimSpace(c.Param("hash")))
	if err != nil {
		c.Error(err)
		writeWorkflowError(c, "Failed to retrieve IPFS records", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
