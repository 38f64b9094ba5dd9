package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alkymya/basegenspark/internal/backend"
	"github.com/alkymya/basegenspark/internal/domain"
	"github.com/containerd/errdefs"
)

func newTestStore(handler http.HandlerFunc) (*RESTStore, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewREST(backend.New(srv.URL, "key", 5*time.Second)), srv
}

func TestGetStudentByEmailMissReturnsNil(t *testing.T) {
	store, srv := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "eq.ghost@example.com" {
			t.Errorf("expected eq filter on email, got %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	defer srv.Close()

	student, err := store.GetStudentByEmail(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("GetStudentByEmail failed: %v", err)
	}
	if student != nil {
		t.Fatalf("expected nil on miss, got %+v", student)
	}
}

func TestCreateStudentReturnsBackendRepresentation(t *testing.T) {
	store, srv := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["email"] != "new@example.com" {
			t.Errorf("unexpected payload email: %v", payload["email"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"stu_42","email":"new@example.com","name":"New"}]`))
	})
	defer srv.Close()

	created, err := store.CreateStudent(context.Background(), &domain.Student{Email: "new@example.com", Name: "New"})
	if err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}
	if created.ID != "stu_42" {
		t.Errorf("expected backend-generated id, got %q", created.ID)
	}
}

func TestUpdateSessionEmptyResultIsNotFound(t *testing.T) {
	store, srv := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	defer srv.Close()

	_, err := store.UpdateSession(context.Background(), "AGT-20260120-NONE-0000", map[string]interface{}{
		"progression_current": 1,
	})
	if !errdefs.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestListAgentLogsAppliesFilterAndOrder(t *testing.T) {
	store, srv := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("order") != "timestamp.desc" {
			t.Errorf("expected newest-first order, got %q", q.Get("order"))
		}
		if q.Get("agent_name") != "eq.quiz" {
			t.Errorf("expected agent_name filter, got %q", q.Get("agent_name"))
		}
		if q.Get("limit") != "5" {
			t.Errorf("expected limit 5, got %q", q.Get("limit"))
		}
		_, _ = w.Write([]byte(`[{"agent_name":"quiz","action":"answered"}]`))
	})
	defer srv.Close()

	logs, err := store.ListAgentLogs(context.Background(), LogFilter{AgentName: "quiz", Limit: 5})
	if err != nil {
		t.Fatalf("ListAgentLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "answered" {
		t.Errorf("unexpected logs: %+v", logs)
	}
}
