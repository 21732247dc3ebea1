package booking

import (
	"errors"
	"fmt"

	"studiobooking/internal/domain"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidWindow     = fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	ErrStartInPast       = fmt.Errorf("%w: start_time must not be in the past", ErrValidation)
	ErrNotFound          = errors.New("not_found")
	ErrForbidden         = errors.New("forbidden")
	ErrResourceConflict  = errors.New("resource conflict")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrInternal          = errors.New("internal error")

	// ErrConcurrentChange reports that another request changed the booking
	// while this one was applying its own change.
	ErrConcurrentChange = fmt.Errorf("%w: booking was changed by another request", ErrInvalidTransition)
)

// ConflictError names the resource whose reservation overlaps an existing
// booking. It matches ErrResourceConflict under errors.Is.
type ConflictError struct {
	Kind       domain.ResourceKind
	ResourceID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d is already booked for the requested time", e.Kind, e.ResourceID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrResourceConflict
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
