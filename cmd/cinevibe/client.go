package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/dedsfe/cinevibe/internal/resolver"
	"github.com/dedsfe/cinevibe/internal/store"
	"github.com/dedsfe/cinevibe/internal/workers"
)

// apiClient talks to the daemon's HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(bind, token string) *apiClient {
	base := strings.TrimSpace(bind)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &apiClient{
		baseURL: strings.TrimRight(base, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// resolveOutcome mirrors the daemon's resolve response body.
type resolveOutcome struct {
	Status       string  `json:"status"`
	Title        string  `json:"title"`
	MatchedTitle string  `json:"matchedTitle"`
	Year         int     `json:"year"`
	TMDBID       int64   `json:"tmdbId"`
	LocatorURI   string  `json:"locatorUri"`
	MediaID      string  `json:"mediaId"`
	PosterURL    string  `json:"posterUrl"`
	Overview     string  `json:"overview"`
	FromCache    bool    `json:"fromCache"`
	Similarity   float64 `json:"similarity"`
	Reason       string  `json:"reason"`
}

type daemonStatus struct {
	UptimeSeconds    int         `json:"uptimeSeconds"`
	QueueDepths      []int       `json:"queueDepths"`
	BackgroundDepths []int       `json:"backgroundDepths"`
	Store            store.Stats `json:"store"`
}

func (c *apiClient) Resolve(ctx context.Context, req resolver.Request) (*resolveOutcome, error) {
	var out resolveOutcome
	if err := c.do(ctx, http.MethodPost, "/api/resolve", req, &out, http.StatusOK, http.StatusNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) EnqueueResolve(ctx context.Context, req resolver.Request) (string, error) {
	var out struct {
		JobID string `json:"jobId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/resolve/background", req, &out, http.StatusAccepted); err != nil {
		return "", err
	}
	return out.JobID, nil
}

func (c *apiClient) JobStatus(ctx context.Context, jobID string) (*workers.Job, error) {
	var job workers.Job
	if err := c.do(ctx, http.MethodGet, "/api/resolve/background/"+jobID, nil, &job, http.StatusOK); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *apiClient) Status(ctx context.Context) (*daemonStatus, error) {
	var out daemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, payload, out any, acceptable ...int) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapConnectError(err, c.baseURL)
	}
	defer resp.Body.Close()

	ok := false
	for _, status := range acceptable {
		if resp.StatusCode == status {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("daemon returned %s: %s", resp.Status, readErrorMessage(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func wrapConnectError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start it with `cinevibe daemon`", base)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

func readErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "no detail"
}
