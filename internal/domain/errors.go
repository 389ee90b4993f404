package domain

import "errors"

// Error kinds. Specific errors wrap one of these so callers can classify
// them with errors.Is.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDuplicate    = errors.New("already exists")
	ErrStorage      = errors.New("storage failure")
)
