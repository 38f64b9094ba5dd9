package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alkymya/basegenspark/internal/domain"
	"github.com/alkymya/basegenspark/internal/store"
	"github.com/containerd/errdefs"
)

type fakeRepo struct {
	mu               sync.Mutex
	students         map[string]*domain.Student
	sessions         map[string]*domain.Session
	createStudentErr error
	conflictWinner   *domain.Student
	studentsCreated  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		students: make(map[string]*domain.Student),
		sessions: make(map[string]*domain.Session),
	}
}

func (f *fakeRepo) GetStudentByEmail(_ context.Context, email string) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	student := f.students[email]
	if student == nil {
		return nil, nil
	}
	copy := *student
	return &copy, nil
}

func (f *fakeRepo) CreateStudent(_ context.Context, student *domain.Student) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createStudentErr != nil {
		if f.conflictWinner != nil {
			// Simulate the concurrent writer whose row made our insert fail.
			f.students[f.conflictWinner.Email] = f.conflictWinner
		}
		return nil, f.createStudentErr
	}
	f.studentsCreated++
	copy := *student
	copy.ID = fmt.Sprintf("stu_%d", f.studentsCreated)
	copy.CreatedAt = time.Now()
	f.students[student.Email] = &copy
	out := copy
	return &out, nil
}

func (f *fakeRepo) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.sessions[sessionID]
	if sess == nil {
		return nil, nil
	}
	copy := *sess
	return &copy, nil
}

func (f *fakeRepo) CreateSession(_ context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *session
	f.sessions[session.SessionID] = &copy
	return nil
}

func (f *fakeRepo) UpdateSession(_ context.Context, sessionID string, patch map[string]interface{}) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.sessions[sessionID]
	if sess == nil {
		return nil, fmt.Errorf("update session %s: %w", sessionID, errdefs.ErrNotFound)
	}
	for k, v := range patch {
		switch k {
		case "status":
			sess.Status = v.(string)
		case "completed_at":
			t := v.(time.Time)
			sess.CompletedAt = &t
		case "duration_minutes":
			d := v.(int)
			sess.DurationMinutes = &d
		case "metadata":
			sess.Metadata = v.(map[string]interface{})
		case "score":
			score := v.(float64)
			sess.Score = &score
		case "strengths":
			sess.Strengths = v.([]string)
		case "improvements":
			sess.Improvements = v.([]string)
		case "progression_current":
			sess.ProgressionCurrent = v.(int)
		case "progression_total":
			sess.ProgressionTotal = v.(int)
		case "progression_label":
			sess.ProgressionLabel = v.(string)
		case "resources_viewed":
			sess.ResourcesViewed = v.(int)
		}
	}
	copy := *sess
	return &copy, nil
}

func (f *fakeRepo) CreateAgentLog(_ context.Context, entry *domain.AgentLog) (*domain.AgentLog, error) {
	return entry, nil
}

func (f *fakeRepo) ListAgentLogs(_ context.Context, _ store.LogFilter) ([]domain.AgentLog, error) {
	return nil, nil
}

func (f *fakeRepo) Ping(_ context.Context) error { return nil }

func TestStartCreatesStudentOnFirstContact(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	result, err := svc.Start(context.Background(), StartParams{
		StudentEmail:     "alice.durand@example.com",
		AgentName:        "quiz",
		ProgressionTotal: 10,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if repo.studentsCreated != 1 {
		t.Fatalf("expected exactly one student created, got %d", repo.studentsCreated)
	}
	if result.Student.Name != "Alice Durand" {
		t.Errorf("expected derived name Alice Durand, got %q", result.Student.Name)
	}

	sess := repo.sessions[result.SessionID]
	if sess == nil {
		t.Fatal("session not persisted")
	}
	if sess.Status != domain.SessionInProgress {
		t.Errorf("expected status in_progress, got %q", sess.Status)
	}
	if sess.ProgressionCurrent != 0 {
		t.Errorf("expected progression_current 0, got %d", sess.ProgressionCurrent)
	}
	if sess.Metadata == nil {
		t.Error("expected metadata defaulted to empty map")
	}

	// Same email resolves to the same student without a second creation.
	again, err := svc.Start(context.Background(), StartParams{
		StudentEmail: "alice.durand@example.com",
		AgentName:    "quiz",
	})
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if repo.studentsCreated != 1 {
		t.Fatalf("expected no additional student, got %d created", repo.studentsCreated)
	}
	if again.Student.ID != result.Student.ID {
		t.Errorf("expected same student id %q, got %q", result.Student.ID, again.Student.ID)
	}
}

func TestStartRejectsMissingFields(t *testing.T) {
	svc := NewService(newFakeRepo())

	tests := []struct {
		name   string
		params StartParams
	}{
		{"missing email", StartParams{AgentName: "quiz"}},
		{"missing agent name", StartParams{StudentEmail: "a@b.co"}},
		{"negative total", StartParams{StudentEmail: "a@b.co", AgentName: "quiz", ProgressionTotal: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), tt.params)
			if !errdefs.IsInvalidArgument(err) {
				t.Fatalf("expected invalid-argument error, got %v", err)
			}
		})
	}
}

func TestResolveStudentRefetchesAfterInsertConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	// The insert loses the race: the backend reports a duplicate key, and by
	// the time we re-fetch, the winning row is visible.
	repo.createStudentErr = fmt.Errorf("duplicate key value: %w", errdefs.ErrAlreadyExists)
	repo.conflictWinner = &domain.Student{ID: "stu_winner", Email: "bob@example.com", Name: "Bob"}

	resolved, err := svc.ResolveStudent(context.Background(), "bob@example.com")
	if err != nil {
		t.Fatalf("ResolveStudent failed: %v", err)
	}
	if resolved.ID != "stu_winner" {
		t.Errorf("expected winning row stu_winner, got %q", resolved.ID)
	}
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Update(context.Background(), "QUIZ-20260120-ALIC-abcd", UpdateParams{})
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid-argument error, got %v", err)
	}
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	result, err := svc.Start(context.Background(), StartParams{
		StudentEmail:     "carol@example.com",
		AgentName:        "tutor",
		ProgressionTotal: 5,
		ProgressionLabel: "chapitre 1",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	current := 3
	updated, err := svc.Update(context.Background(), result.SessionID, UpdateParams{
		ProgressionCurrent: &current,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ProgressionCurrent != 3 {
		t.Errorf("expected progression_current 3, got %d", updated.ProgressionCurrent)
	}
	if updated.ProgressionTotal != 5 {
		t.Errorf("expected progression_total untouched at 5, got %d", updated.ProgressionTotal)
	}
	if updated.ProgressionLabel != "chapitre 1" {
		t.Errorf("expected label untouched, got %q", updated.ProgressionLabel)
	}
}

func TestUpdateUnknownSessionIsNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	current := 1
	_, err := svc.Update(context.Background(), "AGT-20260120-NONE-0000", UpdateParams{ProgressionCurrent: &current})
	if !errdefs.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestEndComputesFloorMinuteDuration(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	start := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	result, err := svc.Start(context.Background(), StartParams{
		StudentEmail: "dave@example.com",
		AgentName:    "evaluation",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	svc.now = func() time.Time { return time.Date(2026, 1, 20, 9, 45, 30, 0, time.UTC) }

	completed, err := svc.End(context.Background(), result.SessionID, EndParams{})
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if completed.DurationMinutes == nil || *completed.DurationMinutes != 45 {
		t.Fatalf("expected duration 45 minutes, got %v", completed.DurationMinutes)
	}
	if completed.Status != domain.SessionCompleted {
		t.Errorf("expected status completed, got %q", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Error("expected completion timestamp set")
	}
}

func TestEndUnknownSessionIsNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.End(context.Background(), "AGT-20260120-NONE-0000", EndParams{})
	if !errdefs.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestEndTwiceIsConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	result, err := svc.Start(context.Background(), StartParams{
		StudentEmail: "eve@example.com",
		AgentName:    "coach",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := svc.End(context.Background(), result.SessionID, EndParams{}); err != nil {
		t.Fatalf("first End failed: %v", err)
	}
	_, err = svc.End(context.Background(), result.SessionID, EndParams{})
	if !errdefs.IsConflict(err) {
		t.Fatalf("expected conflict on second End, got %v", err)
	}
}

func TestEndMergesMetadata(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	result, err := svc.Start(context.Background(), StartParams{
		StudentEmail: "frank@example.com",
		AgentName:    "quiz",
		Metadata:     map[string]interface{}{"a": 1, "keep": "old"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	score := 87.5
	completed, err := svc.End(context.Background(), result.SessionID, EndParams{
		Score:     &score,
		Strengths: []string{"syntaxe"},
		Metadata:  map[string]interface{}{"b": 2, "keep": "new"},
	})
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}

	if completed.Metadata["a"] != 1 {
		t.Errorf("expected prior key a preserved, got %v", completed.Metadata["a"])
	}
	if completed.Metadata["b"] != 2 {
		t.Errorf("expected supplied key b merged, got %v", completed.Metadata["b"])
	}
	if completed.Metadata["keep"] != "new" {
		t.Errorf("expected supplied key to win, got %v", completed.Metadata["keep"])
	}
	if completed.Score == nil || *completed.Score != 87.5 {
		t.Errorf("expected score 87.5, got %v", completed.Score)
	}
}
