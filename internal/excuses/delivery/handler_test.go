package delivery

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"arbitrage-gateway/pkg/backend"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var backendCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&backendCalls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"exc-1"}`))
	}))
	t.Cleanup(srv.Close)

	h := NewExcuseHandler(backend.New(srv.URL, 5*time.Second))
	r := gin.New()
	r.POST("/api/excuses/create", h.Create)
	r.GET("/api/excuses/history", h.History)
	return r, &backendCalls
}

func excuseForm(t *testing.T, debut, fin string, attachment []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("date_debut", debut))
	require.NoError(t, mw.WriteField("date_fin", fin))
	require.NoError(t, mw.WriteField("motif", "blessure"))
	if attachment != nil {
		part, err := mw.CreateFormFile("justificatif", "certificat.pdf")
		require.NoError(t, err)
		_, err = part.Write(attachment)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateRejectsInvertedDatesWithoutForwarding(t *testing.T) {
	r, calls := setupRouter(t)

	tests := []struct {
		name  string
		debut string
		fin   string
	}{
		{"end before start", "2026-09-10", "2026-09-01"},
		{"end equals start", "2026-09-10", "2026-09-10"},
		{"rfc3339 inverted", "2026-09-10T08:00:00Z", "2026-09-10T08:00:00Z"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := excuseForm(t, tc.debut, tc.fin, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/excuses/create", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, int64(0), atomic.LoadInt64(calls), "no backend call for invalid dates")
		})
	}
}

func TestCreateRejectsOversizedAttachmentWithoutForwarding(t *testing.T) {
	r, calls := setupRouter(t)

	oversized := make([]byte, 5*1024*1024+1)
	body, contentType := excuseForm(t, "2026-09-01", "2026-09-10", oversized)
	req := httptest.NewRequest(http.MethodPost, "/api/excuses/create", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "5MB")
	assert.Equal(t, int64(0), atomic.LoadInt64(calls))
}

func TestCreateRequiresDates(t *testing.T) {
	r, calls := setupRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("motif", "blessure"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/excuses/create", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), atomic.LoadInt64(calls))
}

func TestCreateForwardsValidForm(t *testing.T) {
	r, calls := setupRouter(t)

	body, contentType := excuseForm(t, "2026-09-01", "2026-09-10", []byte("pdfdata"))
	req := httptest.NewRequest(http.MethodPost, "/api/excuses/create", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "exc-1")
	assert.Equal(t, int64(1), atomic.LoadInt64(calls))
}

func TestHistoryRelaysBackend(t *testing.T) {
	r, calls := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/excuses/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code) // stub answers 201 for everything
	assert.Equal(t, int64(1), atomic.LoadInt64(calls))
}
