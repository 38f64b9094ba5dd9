// Package store provides data access interfaces over the external backend.
package store

import (
	"context"

	"github.com/alkymya/basegenspark/internal/domain"
)

// LogFilter narrows agent log listings.
type LogFilter struct {
	AgentName string
	Limit     int
}

// Repository defines the persistence operations the gateway needs. The
// external backend is the sole source of truth; implementations hold no
// state between calls.
type Repository interface {
	// GetStudentByEmail retrieves a student by email. Returns (nil, nil)
	// when no student matches.
	GetStudentByEmail(ctx context.Context, email string) (*domain.Student, error)

	// CreateStudent inserts a student and returns the created record.
	// Returns an already-exists error if the backend uniqueness constraint
	// on email fires.
	CreateStudent(ctx context.Context, student *domain.Student) (*domain.Student, error)

	// GetSession retrieves a session by its identifier. Returns (nil, nil)
	// when no session matches.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// CreateSession inserts a new session record.
	CreateSession(ctx context.Context, session *domain.Session) error

	// UpdateSession patches the matching session with the supplied columns
	// and returns the updated record. Returns a not-found error when no
	// session matches.
	UpdateSession(ctx context.Context, sessionID string, patch map[string]interface{}) (*domain.Session, error)

	// CreateAgentLog inserts an activity log entry.
	CreateAgentLog(ctx context.Context, entry *domain.AgentLog) (*domain.AgentLog, error)

	// ListAgentLogs returns log entries newest-first, applying the filter.
	ListAgentLogs(ctx context.Context, filter LogFilter) ([]domain.AgentLog, error)

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error
}
