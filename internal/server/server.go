// Package server exposes the HTTP control surface: the cycle trigger, run
// history, an SSE event stream, and health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/agent"
	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
)

// RunStore is the slice of storage the HTTP layer reads.
type RunStore interface {
	ListRecentRuns(ctx context.Context, tenantID string, limit int) ([]*db.AgentRun, error)
}

// Pinger reports storage liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles HTTP requests for the prospecting agent.
type Server struct {
	orchestrator *agent.Orchestrator
	runs         RunStore
	pinger       Pinger
	bus          *event.Bus
	logger       *zap.SugaredLogger
}

// New creates the HTTP server.
func New(orchestrator *agent.Orchestrator, runs RunStore, pinger Pinger, bus *event.Bus, logger *zap.SugaredLogger) *Server {
	return &Server{
		orchestrator: orchestrator,
		runs:         runs,
		pinger:       pinger,
		bus:          bus,
		logger:       logger,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/cycle", s.handleCycle)
	mux.HandleFunc("GET /v1/runs", s.handleRuns)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

type cycleRequest struct {
	TenantID    string `json:"tenant_id"`
	ForceStage  string `json:"force_stage,omitempty"`
	ForceDryRun *bool  `json:"force_dry_run,omitempty"`
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	var req cycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.TenantID == "" {
		s.writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	result := s.orchestrator.RunCycle(r.Context(), req.TenantID, agent.CycleOptions{
		ForceStage:  req.ForceStage,
		ForceDryRun: req.ForceDryRun,
	})
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		s.writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRecentRuns(r.Context(), tenantID, limit)
	if err != nil {
		s.logger.Errorw("List runs failed", "tenant_id", tenantID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*db.AgentRun{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleEvents streams bus events as server-sent events. With a tenant_id
// query parameter only that tenant's events are delivered.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// The stream outlives the server-wide write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debugw("Clear write deadline failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	channel := "*"
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		channel = "tenant:" + tenantID
	}

	events := make(chan *event.Event, 64)
	sub := s.bus.Subscribe(channel, func(evt *event.Event) {
		select {
		case events <- evt:
		default: // drop when the client is slow
		}
	})
	defer s.bus.Unsubscribe(channel, sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
