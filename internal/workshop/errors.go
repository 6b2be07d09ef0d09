package workshop

import (
	"errors"
	"fmt"
)

// ValidationError reports bad caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing session, item or feature.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// GroupingUnavailableError reports that the grouper failed and no fallback
// was allowed.
type GroupingUnavailableError struct {
	Err error
}

func (e *GroupingUnavailableError) Error() string {
	return fmt.Sprintf("grouping unavailable: %v", e.Err)
}

func (e *GroupingUnavailableError) Unwrap() error {
	return e.Err
}

func validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func invalidPhase(raw string) error {
	return validation("phase", "unrecognized phase %q", raw)
}

// NotFound builds a NotFoundError for kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
