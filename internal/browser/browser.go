// Package browser locates browser profile stores on the local machine.
package browser

import (
	"slices"
	"strings"
)

// Schema families. Chromium derivatives share Chrome's history layout.
const (
	FamilyChrome  = "chrome"
	FamilyFirefox = "firefox"
	FamilySafari  = "safari"
)

var names = []string{"chrome", "edge", "firefox", "brave", "safari", "vivaldi", "opera"}

var families = map[string]string{
	"chrome":  FamilyChrome,
	"edge":    FamilyChrome,
	"brave":   FamilyChrome,
	"vivaldi": FamilyChrome,
	"opera":   FamilyChrome,
	"firefox": FamilyFirefox,
	"safari":  FamilySafari,
}

// Names returns every supported browser in display order.
func Names() []string {
	return slices.Clone(names)
}

// Supported reports whether name (case-insensitive) is a known browser.
func Supported(name string) bool {
	_, ok := families[Normalize(name)]
	return ok
}

// Normalize lower-cases and trims a browser name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Family returns the schema family for a browser, or "" if unknown.
func Family(name string) string {
	return families[Normalize(name)]
}
