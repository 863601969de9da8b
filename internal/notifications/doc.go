// Package notifications pushes resolution and repair events to an ntfy
// topic. An unset topic yields a noop service so callers never branch on
// whether notifications are configured.
package notifications
