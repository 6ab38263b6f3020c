package delivery

import (
	"net/http"

	"arbitrage-gateway/internal/relay"
	"arbitrage-gateway/pkg/backend"

	"github.com/gin-gonic/gin"
)

// Allow-list of profile fields forwarded to the backend. Unlisted fields
// (role, verification flags and anything a client invents) are dropped
// silently; the backend owns those.
var (
	profileValueFields = []string{"nom", "prenom", "email", "telephone", "grade", "ligue"}
	profileFileFields  = []string{"photo"}
)

type ProfileHandler struct {
	backend *backend.Client
}

func NewProfileHandler(backendClient *backend.Client) *ProfileHandler {
	return &ProfileHandler{
		backend: backendClient,
	}
}

// Update proxies the multipart profile form, photo upload included.
func (h *ProfileHandler) Update(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required", "details": err.Error()})
		return
	}

	resp, err := h.backend.ForwardMultipart(c.Request.Context(), http.MethodPatch,
		"/api/accounts/arbitres/profile/update", c.GetString("bearer"), form,
		profileValueFields, profileFileFields)
	if err != nil {
		relay.Failure(c, err)
		return
	}
	relay.Response(c, resp)
}
