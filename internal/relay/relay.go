// Package relay writes backend responses back to the browser in the
// gateway's normalized envelope.
package relay

import (
	"encoding/json"
	"errors"
	"net/http"

	"arbitrage-gateway/pkg/backend"

	"github.com/gin-gonic/gin"
)

// Response writes the backend response through: success bodies verbatim,
// non-success statuses wrapped in the {error, details} envelope with the
// backend's status code preserved.
func Response(c *gin.Context, resp *backend.Response) {
	if resp.IsSuccess() {
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(resp.Status, contentType, resp.Body)
		return
	}

	details := json.RawMessage(resp.Body)
	if !json.Valid(resp.Body) {
		raw, _ := json.Marshal(string(resp.Body))
		details = raw
	}
	c.JSON(resp.Status, gin.H{"error": "backend error", "details": details})
}

// Failure maps a client error to the envelope: connection-level failures
// become 503, anything else 500.
func Failure(c *gin.Context, err error) {
	if errors.Is(err, backend.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend unavailable", "details": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
}
