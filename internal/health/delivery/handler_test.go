package delivery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arbitrage-gateway/pkg/backend"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthResponse struct {
	Summary Summary       `json:"summary"`
	Results []CheckResult `json:"results"`
}

func runHealth(t *testing.T, backendHandler http.Handler, bearer string) healthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backendHandler)
	t.Cleanup(srv.Close)

	h := NewHealthHandler(backend.New(srv.URL, 5*time.Second), nil)
	r := gin.New()
	r.GET("/api/health-check", h.Run)

	req := httptest.NewRequest(http.MethodGet, "/api/health-check", nil)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return parsed
}

func TestAuthRequiredChecksSkippedWithoutBearer(t *testing.T) {
	resp := runHealth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "")

	for _, result := range resp.Results {
		for _, check := range DefaultChecks {
			if check.Name == result.Name && check.RequiresAuth {
				assert.Equal(t, StatusSkipped, result.Status, "check %s", result.Name)
			}
		}
	}
	assert.NotZero(t, resp.Summary.Skipped)
}

func TestSummaryCountsReconcile(t *testing.T) {
	// fcm-status fails, the rest succeed.
	resp := runHealth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/accounts/fcm/status" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), "Bearer t")

	s := resp.Summary
	assert.Equal(t, len(DefaultChecks), s.Total)
	assert.Equal(t, s.Total, s.Success+s.Error+s.Skipped)
	assert.Equal(t, 1, s.Error)
	assert.Zero(t, s.Skipped)
}

func TestSummaryReconcilesWithoutBearer(t *testing.T) {
	resp := runHealth(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "")

	s := resp.Summary
	assert.Equal(t, s.Total, s.Success+s.Error+s.Skipped)
}

func TestBackendDownReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(backend.New(url, time.Second), nil)
	r := gin.New()
	r.GET("/api/health-check", h.Run)

	req := httptest.NewRequest(http.MethodGet, "/api/health-check", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var parsed healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	assert.Equal(t, parsed.Summary.Total, parsed.Summary.Error)
}
