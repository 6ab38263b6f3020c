// Package sw serves the portal's service worker and fronts its static assets
// with a cache-first layer mirroring the worker's own policy.
package sw

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static/sw.js
var swFS embed.FS

// PrecacheURLs is the fixed allow-list the worker populates at install.
var PrecacheURLs = []string{
	"/",
	"/manifest.json",
	"/icons/icon-192.png",
	"/icons/icon-512.png",
}

// ServeServiceWorker serves the worker script. It must be served from the
// origin root so the worker can control the entire scope.
func ServeServiceWorker(c *gin.Context) {
	script, err := swFS.ReadFile("static/sw.js")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service worker unavailable"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Header("Service-Worker-Allowed", "/")
	c.Data(http.StatusOK, "application/javascript", script)
}

// PrecacheManifest reports the cache version and the URL allow-list, letting
// diagnostic pages verify what a deployed worker should hold.
func PrecacheManifest(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": version,
			"urls":    PrecacheURLs,
		})
	}
}
