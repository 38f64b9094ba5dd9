package api

import (
	"log/slog"
	"net/http"

	"github.com/alkymya/basegenspark/internal/session"
	"github.com/go-chi/chi/v5"
)

// AgentHandler exposes the pedagogical-agent session lifecycle endpoints.
type AgentHandler struct {
	sessions *session.Service
}

// NewAgentHandler creates an agent handler.
func NewAgentHandler(sessions *session.Service) *AgentHandler {
	return &AgentHandler{sessions: sessions}
}

// RegisterRoutes registers the session lifecycle routes. The caller mounts
// them behind the token gate.
func (h *AgentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Post("/start", h.StartSession)
		r.Patch("/{session_id}", h.UpdateSession)
		r.Post("/{session_id}/end", h.EndSession)
	})
}

type startSessionRequest struct {
	StudentEmail     string                 `json:"student_email"`
	AgentName        string                 `json:"agent_name"`
	ProgressionTotal int                    `json:"progression_total"`
	ProgressionLabel string                 `json:"progression_label"`
	Metadata         map[string]interface{} `json:"metadata"`
}

// StartSession creates a session record, creating the student on first
// contact.
func (h *AgentHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := DecodeBody(w, r, &req); err != nil {
		ErrorFrom(w, err)
		return
	}

	result, err := h.sessions.Start(r.Context(), session.StartParams{
		StudentEmail:     req.StudentEmail,
		AgentName:        req.AgentName,
		ProgressionTotal: req.ProgressionTotal,
		ProgressionLabel: req.ProgressionLabel,
		Metadata:         req.Metadata,
	})
	if err != nil {
		slog.Error("Failed to start session", "error", err, "agent_name", req.AgentName)
		ErrorFrom(w, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"session_id": result.SessionID,
		"student":    result.Student.Summary(),
		"message":    "Session started",
	})
}

type updateSessionRequest struct {
	ProgressionCurrent *int                   `json:"progression_current"`
	ProgressionTotal   *int                   `json:"progression_total"`
	ProgressionLabel   *string                `json:"progression_label"`
	ResourcesViewed    *int                   `json:"resources_viewed"`
	Metadata           map[string]interface{} `json:"metadata"`
}

// UpdateSession applies a partial update to a session. Fields omitted from
// the body are left untouched.
func (h *AgentHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	var req updateSessionRequest
	if err := DecodeBody(w, r, &req); err != nil {
		ErrorFrom(w, err)
		return
	}

	updated, err := h.sessions.Update(r.Context(), sessionID, session.UpdateParams{
		ProgressionCurrent: req.ProgressionCurrent,
		ProgressionTotal:   req.ProgressionTotal,
		ProgressionLabel:   req.ProgressionLabel,
		ResourcesViewed:    req.ResourcesViewed,
		Metadata:           req.Metadata,
	})
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": updated,
	})
}

type endSessionRequest struct {
	Score        *float64               `json:"score"`
	Strengths    []string               `json:"strengths"`
	Improvements []string               `json:"improvements"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// EndSession finalizes a session and reports the derived duration.
func (h *AgentHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	req := endSessionRequest{}
	// The completion body is optional; an absent body ends the session
	// without outcome fields.
	if r.ContentLength != 0 {
		if err := DecodeBody(w, r, &req); err != nil {
			ErrorFrom(w, err)
			return
		}
	}

	completed, err := h.sessions.End(r.Context(), sessionID, session.EndParams{
		Score:        req.Score,
		Strengths:    req.Strengths,
		Improvements: req.Improvements,
		Metadata:     req.Metadata,
	})
	if err != nil {
		ErrorFrom(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"session_id":       completed.SessionID,
		"status":           completed.Status,
		"duration_minutes": completed.DurationMinutes,
		"completed_at":     completed.CompletedAt,
	})
}
