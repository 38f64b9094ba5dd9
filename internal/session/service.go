package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alkymya/basegenspark/internal/domain"
	"github.com/alkymya/basegenspark/internal/store"
	"github.com/containerd/errdefs"
)

// Service manages the session lifecycle against the backend repository.
type Service struct {
	repo store.Repository
	now  func() time.Time
}

// NewService creates a session service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// StartParams are the inputs to Start. Metadata may be nil.
type StartParams struct {
	StudentEmail     string
	AgentName        string
	ProgressionTotal int
	ProgressionLabel string
	Metadata         map[string]interface{}
}

// StartResult is returned by Start.
type StartResult struct {
	SessionID string
	Student   *domain.Student
}

// Start resolves the student, generates a session identifier, and persists
// a new in-progress session record.
func (s *Service) Start(ctx context.Context, p StartParams) (*StartResult, error) {
	if p.StudentEmail == "" {
		return nil, fmt.Errorf("student_email is required: %w", errdefs.ErrInvalidArgument)
	}
	if p.AgentName == "" {
		return nil, fmt.Errorf("agent_name is required: %w", errdefs.ErrInvalidArgument)
	}
	if p.ProgressionTotal < 0 {
		return nil, fmt.Errorf("progression_total must not be negative: %w", errdefs.ErrInvalidArgument)
	}

	student, err := s.ResolveStudent(ctx, p.StudentEmail)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.generateID(p.AgentName, student.Email)
	if err != nil {
		return nil, err
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	sess := &domain.Session{
		SessionID:          sessionID,
		StudentID:          student.ID,
		AgentName:          p.AgentName,
		Status:             domain.SessionInProgress,
		ProgressionCurrent: 0,
		ProgressionTotal:   p.ProgressionTotal,
		ProgressionLabel:   p.ProgressionLabel,
		Metadata:           metadata,
		StartedAt:          s.now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("Session started", "session_id", sessionID, "student_id", student.ID, "agent_name", p.AgentName)
	return &StartResult{SessionID: sessionID, Student: student}, nil
}

// UpdateParams carry the optional fields of a partial session update. Nil
// pointers mean "leave untouched".
type UpdateParams struct {
	ProgressionCurrent *int
	ProgressionTotal   *int
	ProgressionLabel   *string
	ResourcesViewed    *int
	Metadata           map[string]interface{}
}

// IsEmpty reports whether no field was supplied.
func (p UpdateParams) IsEmpty() bool {
	return p.ProgressionCurrent == nil &&
		p.ProgressionTotal == nil &&
		p.ProgressionLabel == nil &&
		p.ResourcesViewed == nil &&
		p.Metadata == nil
}

// Update applies only the supplied fields to the session. An update with no
// fields is rejected as invalid. Unknown session ids are a not-found error.
func (s *Service) Update(ctx context.Context, sessionID string, p UpdateParams) (*domain.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", errdefs.ErrInvalidArgument)
	}
	if p.IsEmpty() {
		return nil, fmt.Errorf("update requires at least one field: %w", errdefs.ErrInvalidArgument)
	}

	patch := map[string]interface{}{}
	if p.ProgressionCurrent != nil {
		patch["progression_current"] = *p.ProgressionCurrent
	}
	if p.ProgressionTotal != nil {
		patch["progression_total"] = *p.ProgressionTotal
	}
	if p.ProgressionLabel != nil {
		patch["progression_label"] = *p.ProgressionLabel
	}
	if p.ResourcesViewed != nil {
		patch["resources_viewed"] = *p.ResourcesViewed
	}
	if p.Metadata != nil {
		patch["metadata"] = p.Metadata
	}

	updated, err := s.repo.UpdateSession(ctx, sessionID, patch)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// EndParams carry the optional completion fields.
type EndParams struct {
	Score        *float64
	Strengths    []string
	Improvements []string
	Metadata     map[string]interface{}
}

// End finalizes a session: computes the whole-minute duration from the
// stored start timestamp, sets the completed status and timestamp, and
// conditionally records score, strengths, improvements, and merged
// metadata. A session is finalized exactly once; ending a completed
// session is a conflict.
func (s *Service) End(ctx context.Context, sessionID string, p EndParams) (*domain.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required: %w", errdefs.ErrInvalidArgument)
	}

	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, errdefs.ErrNotFound)
	}
	if sess.IsCompleted() {
		return nil, fmt.Errorf("session %s already completed: %w", sessionID, errdefs.ErrConflict)
	}

	now := s.now().UTC()
	duration := sess.DurationSince(now)

	patch := map[string]interface{}{
		"status":           domain.SessionCompleted,
		"completed_at":     now,
		"duration_minutes": duration,
	}
	if p.Score != nil {
		patch["score"] = *p.Score
	}
	if p.Strengths != nil {
		patch["strengths"] = p.Strengths
	}
	if p.Improvements != nil {
		patch["improvements"] = p.Improvements
	}
	if p.Metadata != nil {
		patch["metadata"] = sess.MergeMetadata(p.Metadata)
	}

	updated, err := s.repo.UpdateSession(ctx, sessionID, patch)
	if err != nil {
		return nil, err
	}

	slog.Info("Session completed", "session_id", sessionID, "duration_minutes", duration)
	return updated, nil
}
