package delivery

import (
	"net/http"

	"arbitrage-gateway/pkg/backend"

	"github.com/gin-gonic/gin"
)

// Check statuses reported by the diagnostic fan-out.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
	StatusSkipped = "SKIPPED"
)

// Check is one backend endpoint probed by the health fan-out. Entries with
// RequiresAuth are skipped (not failed) when the caller supplies no bearer.
type Check struct {
	Name         string `json:"name"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// DefaultChecks is the fixed table of probed endpoints.
var DefaultChecks = []Check{
	{Name: "backend", Method: http.MethodGet, Path: "/api/health", RequiresAuth: false},
	{Name: "fcm-status", Method: http.MethodGet, Path: "/api/accounts/fcm/status", RequiresAuth: true},
	{Name: "push-status", Method: http.MethodGet, Path: "/api/accounts/push/status", RequiresAuth: true},
	{Name: "profile", Method: http.MethodGet, Path: "/api/accounts/arbitres/profile", RequiresAuth: true},
	{Name: "excuses-history", Method: http.MethodGet, Path: "/api/excuses/history", RequiresAuth: true},
}

type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Code   int    `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Error   int `json:"error"`
	Skipped int `json:"skipped"`
}

type HealthHandler struct {
	backend *backend.Client
	checks  []Check
}

func NewHealthHandler(backendClient *backend.Client, checks []Check) *HealthHandler {
	if checks == nil {
		checks = DefaultChecks
	}
	return &HealthHandler{
		backend: backendClient,
		checks:  checks,
	}
}

// Run probes every entry of the check table sequentially and reports a
// reconciling summary: total = success + error + skipped.
func (h *HealthHandler) Run(c *gin.Context) {
	bearer := c.GetHeader("Authorization")

	results := make([]CheckResult, 0, len(h.checks))
	var summary Summary
	summary.Total = len(h.checks)

	for _, check := range h.checks {
		result := CheckResult{Name: check.Name}

		if check.RequiresAuth && bearer == "" {
			result.Status = StatusSkipped
			summary.Skipped++
			results = append(results, result)
			continue
		}

		resp, err := h.backend.Get(c.Request.Context(), check.Path, bearer)
		switch {
		case err != nil:
			result.Status = StatusError
			result.Detail = err.Error()
			summary.Error++
		case resp.IsSuccess():
			result.Status = StatusSuccess
			result.Code = resp.Status
			summary.Success++
		default:
			result.Status = StatusError
			result.Code = resp.Status
			summary.Error++
		}
		results = append(results, result)
	}

	status := http.StatusOK
	if summary.Error > 0 {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"summary": summary,
		"results": results,
	})
}
