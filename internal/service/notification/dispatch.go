package notification

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"travel-expense/internal/domain"
)

// ErrDeliveryFailure marks a notification that could not be persisted. It is
// a soft failure: callers that already committed a state change log it and
// move on.
var ErrDeliveryFailure = errors.New("notification delivery failed")

type Delivery struct {
	UserID    uuid.UUID
	RequestID uuid.UUID
	Type      domain.NotificationType
	Message   string
	// Subject is used for the email copy; empty falls back to the default.
	Subject string
}

type DeliveryError struct {
	UserID uuid.UUID
	Err    error
}

type DispatchReport struct {
	Attempted int
	Delivered []uuid.UUID
	Failed    []DeliveryError
}

func (r DispatchReport) OK() bool {
	return len(r.Failed) == 0
}

// Err summarises failed deliveries. It wraps ErrDeliveryFailure and is nil
// when every delivery succeeded.
func (r DispatchReport) Err() error {
	if r.OK() {
		return nil
	}

	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("user %s: %w", f.UserID, f.Err))
	}
	return fmt.Errorf("%w: %d of %d failed: %w", ErrDeliveryFailure, len(r.Failed), r.Attempted, errors.Join(errs...))
}
