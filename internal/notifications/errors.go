package notifications

import (
	"errors"
	"fmt"
)

// Input and state errors surfaced to API callers.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotConfigured    = errors.New("transport not configured")
	ErrNoSubscriptions  = errors.New("no subscriptions stored")
	ErrEndpointNotFound = errors.New("subscription not found for endpoint")
)

// DeliveryError wraps a provider-side failure for a single send attempt.
// The scheduler logs it and moves on to the next subscription.
type DeliveryError struct {
	Transport string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Transport, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
