package catalog

import "errors"

var (
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidRate  = errors.New("hourly rate must not be negative")
	ErrNotStaffUser = errors.New("user does not have the staff role")
	ErrAlreadyStaff = errors.New("user already belongs to a studio")
)
