package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("insufficient role")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOrderLocked        = errors.New("purchase order items can only change while the order is PENDING")
	ErrMailDisabled       = errors.New("email delivery is not configured")
)

// ValidationError is a rejected input. Fields maps a field name to the reason.
type ValidationError struct {
	Detail string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Detail
	}
	parts := make([]string, 0, len(e.Fields))
	for f, reason := range e.Fields {
		parts = append(parts, f+": "+reason)
	}
	return e.Detail + " (" + strings.Join(parts, ", ") + ")"
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: map[string]string{field: reason}}
}

// maxReferences caps the names listed by InUseError.
const maxReferences = 5

// InUseError rejects a delete because other rows still reference the entity.
type InUseError struct {
	Entity     string
	Name       string
	References []string
	More       int
}

func newInUseError(entity, name string, refs []string, total int64) *InUseError {
	return &InUseError{Entity: entity, Name: name, References: refs, More: int(total) - len(refs)}
}

func (e *InUseError) Error() string {
	msg := fmt.Sprintf("%s %q is used by: %s", e.Entity, e.Name, strings.Join(e.References, ", "))
	if e.More > 0 {
		msg += fmt.Sprintf(" +%d more", e.More)
	}
	return msg
}

// notFound turns gorm.ErrRecordNotFound into ErrNotFound for entity and passes
// any other error through.
func notFound(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return err
}

func duplicateName(entity string) *ValidationError {
	return &ValidationError{
		Detail: fmt.Sprintf("a %s with that name already exists", entity),
		Fields: map[string]string{"name": "duplicate"},
	}
}
