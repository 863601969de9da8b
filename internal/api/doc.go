// Package api exposes resolution over a small authenticated HTTP surface:
// synchronous and background resolve, batch status, cache stats, and health.
package api
