package api

import (
	"net/http"

	"github.com/alkymya/basegenspark/internal/crm"
	"github.com/go-chi/chi/v5"
)

// CRMHandler exposes the CRM pass-through endpoints.
type CRMHandler struct {
	svc *crm.Service
}

// NewCRMHandler creates a CRM handler.
func NewCRMHandler(svc *crm.Service) *CRMHandler {
	return &CRMHandler{svc: svc}
}

// RegisterRoutes registers the CRM routes. The caller mounts them behind
// the token gate.
func (h *CRMHandler) RegisterRoutes(r chi.Router) {
	r.Route("/prospects", func(r chi.Router) {
		r.Get("/", h.ListProspects)
		r.Get("/search", h.SearchProspects)
		r.Get("/{prospect_id}", h.GetProspect)
		r.Post("/", h.CreateProspect)
		r.Patch("/{prospect_id}", h.UpdateProspect)
	})
	r.Route("/opportunites", func(r chi.Router) {
		r.Get("/", h.ListOpportunities)
		r.Post("/", h.CreateOpportunity)
		r.Patch("/{opportunity_id}", h.UpdateOpportunity)
	})
	r.Get("/pipeline", h.Pipeline)
	r.Get("/stats", h.Stats)
	r.Get("/alertes", h.Alerts)
}

// ListProspects lists active prospects with an optional status filter.
func (h *CRMHandler) ListProspects(w http.ResponseWriter, r *http.Request) {
	prospects, err := h.svc.ListProspects(r.Context(), r.URL.Query().Get("statut"), limitParam(r, 0))
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(prospects),
		"prospects": prospects,
	})
}

// SearchProspects runs the backend fulltext prospect search.
func (h *CRMHandler) SearchProspects(w http.ResponseWriter, r *http.Request) {
	prospects, err := h.svc.SearchProspects(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(prospects),
		"prospects": prospects,
	})
}

// GetProspect returns one prospect with related records attached.
func (h *CRMHandler) GetProspect(w http.ResponseWriter, r *http.Request) {
	prospect, err := h.svc.GetProspect(r.Context(), chi.URLParam(r, "prospect_id"))
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"prospect": prospect,
	})
}

// CreateProspect inserts a prospect.
func (h *CRMHandler) CreateProspect(w http.ResponseWriter, r *http.Request) {
	var payload crm.Row
	if err := DecodeBody(w, r, &payload); err != nil {
		ErrorFrom(w, err)
		return
	}
	created, err := h.svc.CreateProspect(r.Context(), payload)
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  "Prospect created",
		"prospect": created,
	})
}

// UpdateProspect patches a prospect.
func (h *CRMHandler) UpdateProspect(w http.ResponseWriter, r *http.Request) {
	var updates crm.Row
	if err := DecodeBody(w, r, &updates); err != nil {
		ErrorFrom(w, err)
		return
	}
	updated, err := h.svc.UpdateProspect(r.Context(), chi.URLParam(r, "prospect_id"), updates)
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Prospect updated",
		"prospect": updated,
	})
}

// ListOpportunities lists pipeline opportunities.
func (h *CRMHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.svc.ListOpportunities(r.Context(), r.URL.Query().Get("statut"))
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"count":        len(opportunities),
		"opportunites": opportunities,
	})
}

// CreateOpportunity inserts an opportunity.
func (h *CRMHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var payload crm.Row
	if err := DecodeBody(w, r, &payload); err != nil {
		ErrorFrom(w, err)
		return
	}
	created, err := h.svc.CreateOpportunity(r.Context(), payload)
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"message":     "Opportunity created",
		"opportunite": created,
	})
}

// UpdateOpportunity patches an opportunity.
func (h *CRMHandler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	var updates crm.Row
	if err := DecodeBody(w, r, &updates); err != nil {
		ErrorFrom(w, err)
		return
	}
	updated, err := h.svc.UpdateOpportunity(r.Context(), chi.URLParam(r, "opportunity_id"), updates)
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Opportunity updated",
		"opportunite": updated,
	})
}

// Pipeline returns the aggregated pipeline view.
func (h *CRMHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Pipeline(r.Context())
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"pipeline": view,
	})
}

// Stats returns the dashboard snapshot.
func (h *CRMHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// Alerts returns prospects with overdue next actions.
func (h *CRMHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Alerts(r.Context())
	if err != nil {
		ErrorFrom(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(alerts),
		"alertes": alerts,
	})
}
