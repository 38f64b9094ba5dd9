// Package domain contains core domain types for the BaseGenspark gateway.
package domain

import (
	"time"
)

// Student represents a learner record in the backend, keyed by email.
type Student struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Institution string    `json:"institution"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary returns the fields exposed to agent callers on session start.
func (s *Student) Summary() map[string]interface{} {
	return map[string]interface{}{
		"id":    s.ID,
		"email": s.Email,
		"name":  s.Name,
	}
}
