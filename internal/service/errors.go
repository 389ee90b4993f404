package service

import (
	"errors"
	"fmt"

	"github.com/vedran77/tally/internal/domain"
	"github.com/vedran77/tally/pkg/validator"
)

var (
	ErrRequestNotFound    = fmt.Errorf("request %w", domain.ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrNotParticipant     = fmt.Errorf("%w: not a participant of this conversation", domain.ErrUnauthorized)
	ErrDisplayNameTaken   = fmt.Errorf("display name %w", domain.ErrDuplicate)
	ErrInvalidCreds       = fmt.Errorf("%w: invalid display name or password", domain.ErrUnauthorized)
	ErrForbidden          = fmt.Errorf("%w: action not permitted", domain.ErrUnauthorized)
	ErrInvalidAdminSecret = fmt.Errorf("%w: invalid admin secret", domain.ErrUnauthorized)
)

// ValidationError carries per-field messages and classifies as domain.ErrValidation.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Fields.Error()
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

var errorKinds = []error{
	domain.ErrValidation,
	domain.ErrNotFound,
	domain.ErrUnauthorized,
	domain.ErrDuplicate,
	domain.ErrStorage,
}

// storageErr classifies an unclassified store failure as domain.ErrStorage.
// Errors that already carry a kind pass through unchanged.
func storageErr(op string, err error) error {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
