package domain

import (
	"time"
)

// Session lifecycle statuses. A session moves in_progress -> completed and
// is finalized exactly once.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// Session is one tracked unit of work between a student and a named agent.
type Session struct {
	SessionID          string                 `json:"session_id"`
	StudentID          string                 `json:"student_id"`
	AgentName          string                 `json:"agent_name"`
	Status             string                 `json:"status"`
	ProgressionCurrent int                    `json:"progression_current"`
	ProgressionTotal   int                    `json:"progression_total"`
	ProgressionLabel   string                 `json:"progression_label,omitempty"`
	ResourcesViewed    int                    `json:"resources_viewed"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	Score              *float64               `json:"score,omitempty"`
	Strengths          []string               `json:"strengths,omitempty"`
	Improvements       []string               `json:"improvements,omitempty"`
	StartedAt          time.Time              `json:"started_at"`
	CompletedAt        *time.Time             `json:"completed_at,omitempty"`
	DurationMinutes    *int                   `json:"duration_minutes,omitempty"`
}

// IsCompleted reports whether the session has been finalized.
func (s *Session) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// DurationSince computes the whole-minute duration from the session start to
// the given instant. Negative elapsed time clamps to zero.
func (s *Session) DurationSince(now time.Time) int {
	elapsed := now.Sub(s.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}

// MergeMetadata shallow-merges the supplied keys over the stored metadata.
// Supplied keys win; stored keys absent from the update are preserved.
func (s *Session) MergeMetadata(updates map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(s.Metadata)+len(updates))
	for k, v := range s.Metadata {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
