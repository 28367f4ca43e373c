package control

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mattjoyce/islet/internal/events"
)

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ModulesLoaded int    `json:"modules_loaded"`
}

// ModulesResponse is returned by GET /modules.
type ModulesResponse struct {
	Modules []string `json:"modules"`
}

// ReloadResponse is returned by POST /reload.
type ReloadResponse struct {
	Status string `json:"status"`
}

// EventsResponse is returned by GET /events.
type EventsResponse struct {
	Events []events.Event `json:"events"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		ModulesLoaded: len(s.runtime.Order()),
	})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	modules := s.runtime.Order()
	if modules == nil {
		modules = []string{}
	}
	respondJSON(w, http.StatusOK, ModulesResponse{Modules: modules})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.SnapshotTimeout)
	defer cancel()

	snap, err := s.runtime.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("snapshot failed", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "ui loop did not respond")
		return
	}
	if snap.Activities == nil {
		snap.Activities = []string{}
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.runtime.RequestReload("control api")
	respondJSON(w, http.StatusAccepted, ReloadResponse{Status: "queued"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	respondJSON(w, http.StatusOK, EventsResponse{Events: s.events.Since(since)})
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
