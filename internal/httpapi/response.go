package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evm-token-gateway/internal/gateway"
)

// persistenceWarningHeader carries persistence failures of otherwise
// successful reads.
const persistenceWarningHeader = "X-Persistence-Warning"

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type transferResponse struct {
	Success         bool   `json:"success"`
	TransactionHash string `json:"transactionHash,omitempty"`
	Warning         string `json:"warning,omitempty"`
	Error           string `json:"error,omitempty"`
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch gateway.KindOf(err) {
	case gateway.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = detailsOf(err)
		resp.Kind = string(gateway.KindOf(err))
	}
	c.AbortWithStatusJSON(status, resp)
}

// detailsOf returns the underlying cause without the workflow step prefix.
func detailsOf(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Err != nil {
		return gwErr.Err.Error()
	}
	return err.Error()
}

// writeWorkflowError writes a 400 with the validation message for invalid
// requests and a 500 with message and details otherwise.
func writeWorkflowError(c *gin.Context, message string, err error) {
	status := statusOf(err)
	if status == http.StatusBadRequest {
		writeError(c, status, detailsOf(err), err)
		return
	}
	writeError(c, status, message, err)
}

func isNotFound(err error) bool {
	return gateway.KindOf(err) == gateway.KindNotFound
}
