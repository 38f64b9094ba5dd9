package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/alkymya/basegenspark/internal/domain"
	"github.com/alkymya/basegenspark/internal/store"
	"github.com/containerd/errdefs"
	"github.com/go-chi/chi/v5"
)

const (
	defaultLogListLimit   = 100
	defaultRecentLogLimit = 10
	statsLogLimit         = 1000
)

// LogsHandler exposes agent activity log endpoints.
type LogsHandler struct {
	repo store.Repository
}

// NewLogsHandler creates a logs handler.
func NewLogsHandler(repo store.Repository) *LogsHandler {
	return &LogsHandler{repo: repo}
}

// RegisterRoutes registers the log routes. The caller mounts them behind
// the token gate.
func (h *LogsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.CreateLog)
	r.Get("/", h.ListLogs)
	r.Get("/recent", h.RecentLogs)
	r.Get("/stats", h.LogStats)
	r.Get("/agent/{agent_name}", h.LogsByAgent)
}

type createLogRequest struct {
	AgentName string                 `json:"agent_name"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
}

// CreateLog records one agent activity entry.
func (h *LogsHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := DecodeBody(w, r, &req); err != nil {
		ErrorFrom(w, err)
		return
	}
	if req.AgentName == "" || req.Action == "" {
		ErrorFrom(w, fmt.Errorf("agent_name and action are required: %w", errdefs.ErrInvalidArgument))
		return
	}
	if req.Details == nil {
		req.Details = map[string]interface{}{}
	}

	created, err := h.repo.CreateAgentLog(r.Context(), &domain.AgentLog{
		AgentName: req.AgentName,
		Action:    req.Action,
		Details:   req.Details,
	})
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// ListLogs returns log entries newest-first.
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, limitParam(r, defaultLogListLimit), "")
}

// RecentLogs returns the newest entries with a small default limit.
func (h *LogsHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, limitParam(r, defaultRecentLogLimit), "")
}

// LogsByAgent returns the entries recorded by one agent.
func (h *LogsHandler) LogsByAgent(w http.ResponseWriter, r *http.Request) {
	agentName := chi.URLParam(r, "agent_name")
	h.list(w, r, limitParam(r, defaultLogListLimit), agentName)
}

func (h *LogsHandler) list(w http.ResponseWriter, r *http.Request, limit int, agentName string) {
	logs, err := h.repo.ListAgentLogs(r.Context(), store.LogFilter{AgentName: agentName, Limit: limit})
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	if logs == nil {
		logs = []domain.AgentLog{}
	}

	resp := map[string]interface{}{
		"success": true,
		"count":   len(logs),
		"data":    logs,
	}
	if agentName != "" {
		resp["agent_name"] = agentName
	}
	JSON(w, http.StatusOK, resp)
}

// LogStats computes per-agent entry counts gateway-side.
func (h *LogsHandler) LogStats(w http.ResponseWriter, r *http.Request) {
	logs, err := h.repo.ListAgentLogs(r.Context(), store.LogFilter{Limit: statsLogLimit})
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	agents := map[string]int{}
	for _, entry := range logs {
		name := entry.AgentName
		if name == "" {
			name = "unknown"
		}
		agents[name]++
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"total_logs":    len(logs),
		"unique_agents": len(agents),
		"agents":        agents,
	})
}

func limitParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
