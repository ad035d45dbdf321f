// Package device turns a raw User-Agent into a short label for audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Describe returns e.g. "Chrome on Windows 10" or "unknown device".
func Describe(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return "unknown device"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	if ua.OSInfo().Version != "" {
		os += " " + ua.OSInfo().Version
	}

	switch {
	case browser != "" && strings.TrimSpace(os) != "":
		label := browser + " on " + strings.TrimSpace(os)
		if ua.Mobile() {
			label += " (mobile)"
		}
		return label
	case browser != "":
		return browser
	default:
		return "unknown device"
	}
}
