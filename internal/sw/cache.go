package sw

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

// OfflineHTML is the last-resort page returned for navigation requests when
// the asset is uncached and the origin is unreachable.
const OfflineHTML = `<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"><title>Hors ligne</title></head>
<body>
  <h1>Vous êtes hors ligne</h1>
  <p>Le portail arbitre est inaccessible pour le moment. Vérifiez votre connexion puis réessayez.</p>
</body>
</html>`

type cachedAsset struct {
	body        []byte
	contentType string
}

// AssetCache is the server-side counterpart of the worker's fetch handler:
// GET-only, skips /api and framework asset paths, cache-first against the
// static origin, offline HTML for document requests on total failure.
type AssetCache struct {
	origin  string
	version string
	hc      *http.Client
	store   *gocache.Cache
}

func NewAssetCache(origin, version string, timeout time.Duration) *AssetCache {
	return &AssetCache{
		origin:  origin,
		version: version,
		hc:      &http.Client{Timeout: timeout},
		store:   gocache.New(12*time.Hour, time.Hour),
	}
}

// Prewarm fetches the precache allow-list. Best-effort, matching the
// worker's install handler: individual failures are logged and swallowed.
func (a *AssetCache) Prewarm(ctx context.Context) {
	for _, url := range PrecacheURLs {
		if _, ok := a.lookup(url); ok {
			continue
		}
		if _, err := a.fetchAndStore(ctx, url); err != nil {
			log.Printf("[SW] Prewarm failed for %s: %v", url, err)
		}
	}
}

// Handler serves one static GET request with the cache-first policy.
func (a *AssetCache) Handler(c *gin.Context) {
	path := c.Request.URL.Path
	if c.Request.Method != http.MethodGet || strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/_next/") {
		c.Status(http.StatusNotFound)
		return
	}

	if asset, ok := a.lookup(path); ok {
		c.Data(http.StatusOK, asset.contentType, asset.body)
		return
	}

	asset, err := a.fetchAndStore(c.Request.Context(), path)
	if err != nil {
		if isNavigation(c.Request) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(OfflineHTML))
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "asset origin unavailable"})
		return
	}
	c.Data(http.StatusOK, asset.contentType, asset.body)
}

func (a *AssetCache) lookup(path string) (cachedAsset, bool) {
	v, ok := a.store.Get(a.key(path))
	if !ok {
		return cachedAsset{}, false
	}
	asset, ok := v.(cachedAsset)
	return asset, ok
}

func (a *AssetCache) fetchAndStore(ctx context.Context, path string) (cachedAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.origin+path, nil)
	if err != nil {
		return cachedAsset{}, err
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return cachedAsset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cachedAsset{}, &originStatusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cachedAsset{}, err
	}

	asset := cachedAsset{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
	}
	if asset.contentType == "" {
		asset.contentType = "application/octet-stream"
	}
	a.store.Set(a.key(path), asset, gocache.DefaultExpiration)
	return asset, nil
}

// key namespaces entries by cache generation, so a version bump at deploy
// time abandons the previous generation the way the worker's activate
// handler deletes old caches.
func (a *AssetCache) key(path string) string {
	return a.version + ":" + path
}

type originStatusError struct {
	status int
}

func (e *originStatusError) Error() string {
	return "asset origin returned status " + http.StatusText(e.status)
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
