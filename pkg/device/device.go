// Package device classifies browsers from their User-Agent string. UA
// sniffing is a best-effort heuristic, kept behind the Detector interface so
// it can be swapped for real feature probing where a platform permits it.
package device

import (
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformDesktop Platform = "desktop"
)

type Browser string

const (
	BrowserSafari  Browser = "safari"
	BrowserChrome  Browser = "chrome"
	BrowserFirefox Browser = "firefox"
	BrowserOther   Browser = "other"
)

// Capabilities is the platform capability set derived from a User-Agent.
type Capabilities struct {
	Platform      Platform `json:"platform"`
	Browser       Browser  `json:"browser"`
	PushSupported bool     `json:"push_supported"`
	// RequiresInstall is set when push only works after the app is added to
	// the home screen (iOS 16.4+ Safari).
	RequiresInstall bool     `json:"requires_install"`
	Guidance        []string `json:"guidance,omitempty"`
}

// Detector maps a User-Agent string to a capability set.
type Detector interface {
	Detect(userAgent string) Capabilities
}

type heuristicDetector struct{}

func NewDetector() Detector {
	return heuristicDetector{}
}

// Guidance presented for the iOS Safari fallback path. The condition is
// expected, not an error: standard notification APIs are absent or
// non-functional there unless the app is installed.
var iosGuidance = []string{
	"Réessayez d'autoriser les notifications depuis les réglages Safari.",
	"Installez le portail sur votre écran d'accueil (Partager → Sur l'écran d'accueil) pour activer les notifications.",
	"Vous pouvez aussi utiliser Chrome ou Firefox sur un autre appareil.",
}

func (heuristicDetector) Detect(userAgent string) Capabilities {
	ua := strings.ToLower(TruncateUserAgent(userAgent))

	caps := Capabilities{Platform: PlatformDesktop, Browser: BrowserOther, PushSupported: true}

	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ipod"):
		caps.Platform = PlatformIOS
	case strings.Contains(ua, "android"):
		caps.Platform = PlatformAndroid
	}

	switch {
	case strings.Contains(ua, "firefox"), strings.Contains(ua, "fxios"):
		caps.Browser = BrowserFirefox
	case strings.Contains(ua, "crios"), strings.Contains(ua, "chrome"), strings.Contains(ua, "chromium"):
		caps.Browser = BrowserChrome
	case strings.Contains(ua, "safari"):
		caps.Browser = BrowserSafari
	}

	// iOS Safari reports push APIs that do not actually function outside an
	// installed PWA. Every iOS browser shares the Safari engine, so the
	// restriction applies to the whole platform.
	if caps.Platform == PlatformIOS {
		caps.PushSupported = false
		caps.RequiresInstall = true
		caps.Guidance = iosGuidance
	}

	if ua == "" {
		caps.PushSupported = false
	}

	return caps
}

// TruncateUserAgent trims overly long user agents to MaxUserAgentLength runes
// before they are stored or matched.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	runes := []rune(ua)
	return string(runes[:MaxUserAgentLength])
}
