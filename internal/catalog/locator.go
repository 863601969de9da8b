package catalog

import (
	"net/url"
	"path"
	"strings"
)

// mediaExtensions are the file extensions a playable URI may carry. The stem
// before the extension is the stable asset identity; query strings hold
// signed tokens and rotate.
var mediaExtensions = []string{".mp4", ".mkv", ".avi", ".webm", ".m3u8"}

// DeriveMediaID extracts the canonical media ID from a locator URI: the final
// path segment with its media extension removed. Returns false when the URI
// does not end in a known media extension.
func DeriveMediaID(uri string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", false
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return "", false
	}
	lower := strings.ToLower(base)
	for _, ext := range mediaExtensions {
		if strings.HasSuffix(lower, ext) {
			stem := base[:len(base)-len(ext)]
			if stem == "" {
				return "", false
			}
			return stem, true
		}
	}
	return "", false
}

// NewLocator builds a Locator from a raw URI, deriving the media ID. Returns
// false when no canonical ID can be derived.
func NewLocator(uri string) (Locator, bool) {
	id, ok := DeriveMediaID(uri)
	if !ok {
		return Locator{}, false
	}
	return Locator{URI: uri, MediaID: id}, true
}

// HostOf returns the lowercased host portion of a locator URI, or the empty
// string when the URI does not parse.
func HostOf(uri string) string {
	parsed, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
