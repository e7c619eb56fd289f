package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound  = errors.New("workflow template not found")
	ErrDuplicateTemplate = errors.New("workflow template already registered")
	ErrInstanceNotFound  = errors.New("workflow instance not found")
	ErrStepNotFound      = errors.New("workflow step not found")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrNoCandidate       = errors.New("no assignable candidate for role")
)

// ValidationError reports a malformed template at registration time.
// Registration fails, the store stays intact.
type ValidationError struct {
	TemplateID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid workflow template %q: %s", e.TemplateID, e.Reason)
}
