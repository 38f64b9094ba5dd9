package api

import (
	"net/http"
)

// ServiceName and ServiceVersion identify the gateway in the root
// descriptor.
const (
	ServiceName    = "basegenspark-gateway"
	ServiceVersion = "2.0.0"
)

// Root serves the service descriptor with an index of the exposed
// endpoints. No auth.
func Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"service": ServiceName,
		"version": ServiceVersion,
		"status":  "operational",
		"endpoints": map[string][]string{
			"agent": {
				"POST /agent/session/start",
				"PATCH /agent/session/{session_id}",
				"POST /agent/session/{session_id}/end",
			},
			"logs": {
				"POST /logs",
				"GET /logs",
				"GET /logs/recent",
				"GET /logs/stats",
				"GET /logs/agent/{agent_name}",
			},
			"crm": {
				"GET /crm/prospects",
				"GET /crm/prospects/search",
				"GET /crm/prospects/{prospect_id}",
				"POST /crm/prospects",
				"PATCH /crm/prospects/{prospect_id}",
				"GET /crm/opportunites",
				"POST /crm/opportunites",
				"PATCH /crm/opportunites/{opportunity_id}",
				"GET /crm/pipeline",
				"GET /crm/stats",
				"GET /crm/alertes",
			},
			"health": {"GET /health"},
		},
	})
}
