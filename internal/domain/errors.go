package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("not allowed to perform this action")
	ErrConflict          = errors.New("request was modified concurrently")
	ErrStoreUnavailable  = errors.New("data store unavailable")
	ErrValidation        = errors.New("validation failed")

	// ErrNoExpenses blocks a two-phase request from reaching verification
	// without any expense items.
	ErrNoExpenses = fmt.Errorf("%w: no expense items submitted", ErrInvalidTransition)
)

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
