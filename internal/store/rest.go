package store

import (
	"context"
	"fmt"

	"github.com/alkymya/basegenspark/internal/backend"
	"github.com/alkymya/basegenspark/internal/domain"
	"github.com/containerd/errdefs"
)

// Backend table names owned by the external database.
const (
	tableStudents  = "students"
	tableSessions  = "agent_sessions"
	tableAgentLogs = "agent_logs"
)

const defaultLogLimit = 100

// RESTStore implements Repository against the backend REST interface.
type RESTStore struct {
	client *backend.Client
}

// NewREST creates a Repository backed by the external REST interface.
func NewREST(client *backend.Client) *RESTStore {
	return &RESTStore{client: client}
}

// GetStudentByEmail retrieves a student by email, (nil, nil) on miss.
func (s *RESTStore) GetStudentByEmail(ctx context.Context, email string) (*domain.Student, error) {
	var rows []domain.Student
	q := backend.NewQuery().Eq("email", email).Limit(1)
	if err := s.client.Select(ctx, tableStudents, q, &rows); err != nil {
		return nil, fmt.Errorf("get student by email: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateStudent inserts a student and returns the backend representation,
// which carries the generated id.
func (s *RESTStore) CreateStudent(ctx context.Context, student *domain.Student) (*domain.Student, error) {
	payload := map[string]interface{}{
		"email":       student.Email,
		"name":        student.Name,
		"institution": student.Institution,
		"role":        student.Role,
	}
	var rows []domain.Student
	if err := s.client.Insert(ctx, tableStudents, payload, &rows); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create student: backend returned no representation: %w", errdefs.ErrUnavailable)
	}
	return &rows[0], nil
}

// GetSession retrieves a session by its identifier, (nil, nil) on miss.
func (s *RESTStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var rows []domain.Session
	q := backend.NewQuery().Eq("session_id", sessionID).Limit(1)
	if err := s.client.Select(ctx, tableSessions, q, &rows); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateSession inserts a new session record.
func (s *RESTStore) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.client.Insert(ctx, tableSessions, session, nil); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateSession patches the matching session; not-found when no row matched.
func (s *RESTStore) UpdateSession(ctx context.Context, sessionID string, patch map[string]interface{}) (*domain.Session, error) {
	var rows []domain.Session
	q := backend.NewQuery().Eq("session_id", sessionID)
	if err := s.client.Update(ctx, tableSessions, q, patch, &rows); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update session %s: %w", sessionID, errdefs.ErrNotFound)
	}
	return &rows[0], nil
}

// CreateAgentLog inserts an activity log entry.
func (s *RESTStore) CreateAgentLog(ctx context.Context, entry *domain.AgentLog) (*domain.AgentLog, error) {
	payload := map[string]interface{}{
		"agent_name": entry.AgentName,
		"action":     entry.Action,
		"details":    entry.Details,
	}
	var rows []domain.AgentLog
	if err := s.client.Insert(ctx, tableAgentLogs, payload, &rows); err != nil {
		return nil, fmt.Errorf("create agent log: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create agent log: backend returned no representation: %w", errdefs.ErrUnavailable)
	}
	return &rows[0], nil
}

// ListAgentLogs returns entries newest-first.
func (s *RESTStore) ListAgentLogs(ctx context.Context, filter LogFilter) ([]domain.AgentLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	q := backend.NewQuery().Order("timestamp.desc").Limit(limit)
	if filter.AgentName != "" {
		q = q.Eq("agent_name", filter.AgentName)
	}
	var rows []domain.AgentLog
	if err := s.client.Select(ctx, tableAgentLogs, q, &rows); err != nil {
		return nil, fmt.Errorf("list agent logs: %w", err)
	}
	return rows, nil
}

// Ping verifies backend connectivity.
func (s *RESTStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
