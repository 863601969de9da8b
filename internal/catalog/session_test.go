package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClient struct {
	openCalls  int
	closeCalls int
	openErr    error
	searchErr  error
	candidates []Candidate
	locator    *Locator
}

func (f *fakeClient) Open(ctx context.Context) error {
	f.openCalls++
	return f.openErr
}

func (f *fakeClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeClient) FetchLocator(ctx context.Context, cand Candidate) (*Locator, error) {
	return f.locator, nil
}

func (f *fakeClient) Close() error {
	f.closeCalls++
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	client := &fakeClient{}
	session := NewSession(client, 30*time.Minute)

	if session.State() != StateClosed {
		t.Fatalf("initial state = %s, want closed", session.State())
	}
	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if session.State() != StateReady {
		t.Fatalf("state after Ensure = %s, want ready", session.State())
	}
	if client.openCalls != 1 {
		t.Errorf("openCalls = %d, want 1", client.openCalls)
	}

	// Ensure on a ready session is a no-op.
	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if client.openCalls != 1 {
		t.Errorf("openCalls after idempotent Ensure = %d, want 1", client.openCalls)
	}
}

func TestSessionAgeStaleness(t *testing.T) {
	client := &fakeClient{}
	session := NewSession(client, 30*time.Minute)
	current := time.Now()
	session.now = func() time.Time { return current }

	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	current = current.Add(31 * time.Minute)
	if session.State() != StateStale {
		t.Fatalf("state after max age = %s, want stale", session.State())
	}

	// Ensure closes the stale session before reopening.
	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure after stale: %v", err)
	}
	if client.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", client.closeCalls)
	}
	if client.openCalls != 2 {
		t.Errorf("openCalls = %d, want 2", client.openCalls)
	}
	if session.State() != StateReady {
		t.Fatalf("state after reopen = %s, want ready", session.State())
	}
}

func TestSessionMarksStaleOnSessionError(t *testing.T) {
	client := &fakeClient{}
	session := NewSession(client, 0)
	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	client.searchErr = &SessionError{Op: "search", Err: errors.New("connection reset")}
	if _, err := session.Search(context.Background(), "interestelar"); err == nil {
		t.Fatal("expected search error")
	}
	if session.State() != StateStale {
		t.Fatalf("state after session error = %s, want stale", session.State())
	}
}

func TestSessionOrdinaryErrorKeepsReady(t *testing.T) {
	client := &fakeClient{}
	session := NewSession(client, 0)
	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	client.searchErr = errors.New("parse failure")
	if _, err := session.Search(context.Background(), "interestelar"); err == nil {
		t.Fatal("expected search error")
	}
	if session.State() != StateReady {
		t.Fatalf("state after ordinary error = %s, want ready", session.State())
	}
}

func TestSessionRejectsOpsWhenNotReady(t *testing.T) {
	session := NewSession(&fakeClient{}, 0)
	_, err := session.Search(context.Background(), "x")
	var sessionErr *SessionError
	if !errors.As(err, &sessionErr) {
		t.Fatalf("expected *SessionError, got %v", err)
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	client := &fakeClient{}
	session := NewSession(client, 0)
	if err := session.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if client.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", client.closeCalls)
	}
}

func TestSessionOpenFailureStaysClosed(t *testing.T) {
	client := &fakeClient{openErr: &SessionError{Op: "login", Err: errors.New("credentials rejected")}}
	session := NewSession(client, 0)
	if err := session.Ensure(context.Background()); err == nil {
		t.Fatal("expected Ensure error")
	}
	if session.State() != StateClosed {
		t.Fatalf("state after failed open = %s, want closed", session.State())
	}
}
