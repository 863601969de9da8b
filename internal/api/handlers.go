package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dedsfe/cinevibe/internal/logging"
	"github.com/dedsfe/cinevibe/internal/resolver"
	"github.com/dedsfe/cinevibe/internal/store"
)

const maxRequestBody = 1 << 20

// resolveResponse is the wire form of a finished resolution.
type resolveResponse struct {
	Status       string  `json:"status"`
	Title        string  `json:"title"`
	MatchedTitle string  `json:"matchedTitle,omitempty"`
	Year         int     `json:"year,omitempty"`
	TMDBID       int64   `json:"tmdbId,omitempty"`
	LocatorURI   string  `json:"locatorUri,omitempty"`
	MediaID      string  `json:"mediaId,omitempty"`
	PosterURL    string  `json:"posterUrl,omitempty"`
	BackdropURL  string  `json:"backdropUrl,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	FromCache    bool    `json:"fromCache"`
	Similarity   float64 `json:"similarity,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

func toResolveResponse(result *resolver.Result) resolveResponse {
	resp := resolveResponse{
		Status:     string(result.Outcome),
		FromCache:  result.FromCache,
		Similarity: result.Similarity,
		Reason:     result.Reason,
	}
	if rec := result.Record; rec != nil {
		resp.Title = rec.Title
		resp.MatchedTitle = rec.MatchedTitle
		resp.Year = rec.Year
		resp.TMDBID = rec.TMDBID
		resp.MediaID = rec.MediaID
		resp.PosterURL = rec.PosterURL
		resp.BackdropURL = rec.BackdropURL
		resp.Overview = rec.Overview
		if rec.Resolved() {
			resp.LocatorURI = rec.LocatorURI
		}
	}
	return resp
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeResolveRequest(w, r)
	if !ok {
		return
	}

	result, err := s.pool.Resolve(r.Context(), req)
	if err != nil {
		s.logger.Error("resolve request failed",
			logging.String(logging.FieldTitle, req.Title),
			logging.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	status := http.StatusOK
	if result.Outcome == resolver.OutcomeMissing {
		status = http.StatusNotFound
	}
	writeJSON(w, status, toResolveResponse(result))
}

func (s *Server) handleResolveBackground(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeResolveRequest(w, r)
	if !ok {
		return
	}

	jobID, err := s.pool.Enqueue(req)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":  jobID,
		"status": "queued",
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.pool.JobStatus(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IDs []int64 `json:"ids"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if len(payload.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is empty")
		return
	}

	entries, err := s.store.BatchStatus(r.Context(), payload.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]map[int64]store.BatchEntry{"results": entries})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uptimeSeconds":    int(time.Since(s.startedAt).Seconds()),
		"queueDepths":      s.pool.QueueDepths(),
		"backgroundDepths": s.pool.BackgroundDepths(),
		"store":            stats,
	})
}

func decodeResolveRequest(w http.ResponseWriter, r *http.Request) (resolver.Request, bool) {
	var req resolver.Request
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return req, false
	}
	return req, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
