package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionFailed tags failures to establish or re-establish the catalog
// session. Nothing is persisted for these; the request is retryable once the
// catalog is reachable again.
var ErrSessionFailed = errors.New("catalog session failed")

// Wrap tags an error with a marker and request context for classification.
func Wrap(marker error, subject, message string, err error) error {
	detail := buildDetail(subject, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(subject, message string) string {
	parts := make([]string, 0, 2)
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, fmt.Sprintf("%q", subject))
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "resolution failure"
	}
	return strings.Join(parts, ": ")
}
