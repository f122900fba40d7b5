package apperrors

import (
	"errors"
	"fmt"
)

// ConstraintError reports a uniqueness violation on create or update.
// The failed operation leaves no partial state behind.
type ConstraintError struct {
	Field string // "email", "username", "name"
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation: %s already taken", e.Field)
}

// NotFoundError reports a missing user, idea, or source.
type NotFoundError struct {
	Entity string // "user", "idea", "source"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// UnauthorizedError reports a delete attempted by a requester who is
// neither the poster nor an admin.
type UnauthorizedError struct {
	UserID string
	IdeaID string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %s may not delete idea %s", e.UserID, e.IdeaID)
}

var (
	// ErrNoCandidates means a recommendation query had no eligible
	// result. It is an expected outcome, not a storage fault.
	ErrNoCandidates = errors.New("no candidate ideas")

	// ErrEmptyGraph means there are no ideas at all.
	ErrEmptyGraph = errors.New("no ideas in graph")

	// ErrInvalidCredentials means email lookup or password check failed.
	// Callers must not learn which.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// IsConstraint reports whether err is a uniqueness violation.
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUnauthorized reports whether err is an ownership failure.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}
