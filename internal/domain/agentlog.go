package domain

import (
	"time"
)

// AgentLog is an activity log entry recorded by an agent caller.
type AgentLog struct {
	ID        string                 `json:"id,omitempty"`
	AgentName string                 `json:"agent_name"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
}
