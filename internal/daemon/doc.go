// Package daemon assembles the long-running service: the sharded worker
// pool, the repair loop, and the HTTP API, guarded by a file lock so only
// one instance runs against a data directory.
package daemon
