// Package catalog talks to the remote, browsable media catalog.
//
// The catalog exposes no stable search API, only server-rendered pages behind
// an authenticated session, so access goes through a Client that models the
// three capabilities resolution needs: search for candidates, extract a
// playable locator from a candidate's detail view, and manage session
// lifecycle. Session wraps a Client with the staleness state machine: one
// long-lived authenticated session is reused across many resolutions and
// renewed explicitly instead of opening a session per call.
package catalog
