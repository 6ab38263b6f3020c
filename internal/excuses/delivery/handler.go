package delivery

import (
	"net/http"
	"time"

	"arbitrage-gateway/internal/relay"
	"arbitrage-gateway/pkg/backend"

	"github.com/gin-gonic/gin"
)

// MaxAttachmentSize caps the justificatif upload at 5 MiB.
const MaxAttachmentSize = 5 * 1024 * 1024

// Only these form fields are forwarded; anything else is dropped silently.
var (
	excuseValueFields = []string{"date_debut", "date_fin", "motif", "type_excuse"}
	excuseFileFields  = []string{"justificatif"}
)

type ExcuseHandler struct {
	backend *backend.Client
}

func NewExcuseHandler(backendClient *backend.Client) *ExcuseHandler {
	return &ExcuseHandler{
		backend: backendClient,
	}
}

// Create validates the excuse form locally, then forwards it. Both checks
// fail fast: no outbound call is made for an invalid form.
func (h *ExcuseHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required", "details": err.Error()})
		return
	}

	debut := firstValue(form.Value["date_debut"])
	fin := firstValue(form.Value["date_fin"])
	if debut == "" || fin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_debut and date_fin are required"})
		return
	}

	debutAt, err1 := parseDate(debut)
	finAt, err2 := parseDate(fin)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected ISO dates"})
		return
	}
	if !finAt.After(debutAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_fin must be after date_debut"})
		return
	}

	for _, fh := range form.File["justificatif"] {
		if fh.Size > MaxAttachmentSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "justificatif exceeds the 5MB limit"})
			return
		}
	}

	resp, err := h.backend.ForwardMultipart(c.Request.Context(), http.MethodPost, "/api/excuses/create",
		c.GetString("bearer"), form, excuseValueFields, excuseFileFields)
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

func (h *ExcuseHandler) History(c *gin.Context) {
	resp, err := h.backend.Get(c.Request.Context(), "/api/excuses/history", c.GetString("bearer"))
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
