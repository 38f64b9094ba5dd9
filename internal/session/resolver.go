package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/alkymya/basegenspark/internal/domain"
	"github.com/containerd/errdefs"
)

// Defaults applied when a student record is created implicitly on first
// session start.
const (
	defaultInstitution = "Grande École"
	defaultRole        = "STUDENT"
)

// deriveDisplayName builds a display name from the email local part:
// "jean.dupont" becomes "Jean Dupont".
func deriveDisplayName(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return local
	}
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

// ResolveStudent returns the student for email, creating the record on a
// miss. A concurrent creation surfaces as an already-exists error from the
// backend uniqueness constraint; that is treated as the success path and
// the winning row is re-fetched.
func (s *Service) ResolveStudent(ctx context.Context, email string) (*domain.Student, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("student email is required: %w", errdefs.ErrInvalidArgument)
	}

	student, err := s.repo.GetStudentByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if student != nil {
		return student, nil
	}

	created, err := s.repo.CreateStudent(ctx, &domain.Student{
		Email:       email,
		Name:        deriveDisplayName(email),
		Institution: defaultInstitution,
		Role:        defaultRole,
	})
	if err == nil {
		return created, nil
	}
	if !errdefs.IsAlreadyExists(err) {
		return nil, err
	}

	// Lost the insert race; someone else created the row.
	student, err = s.repo.GetStudentByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, fmt.Errorf("student %s vanished after duplicate-key conflict: %w", email, errdefs.ErrUnavailable)
	}
	return student, nil
}
