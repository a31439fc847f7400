// Package domain contains the core subscription types shared across the
// notification stores, schedulers and HTTP layer.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPayload indicates a subscription whose transport payload is
// missing or failed transport-specific validation.
var ErrInvalidPayload = errors.New("invalid transport payload")

// SMSSubscription is a recurring SMS notification subscription. There is
// at most one per booking; the booking ID is the correlation key.
type SMSSubscription struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	PhoneE164   string     `json:"phone_e164"`
	Temple      string     `json:"temple"`
	QueueNumber int        `json:"queue_number"`
	TimeSlot    string     `json:"time_slot,omitempty"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"created_at"`
	LastSentAt  *time.Time `json:"last_sent_at,omitempty"`
}

// RecordID returns the stable primary key of the subscription.
func (s SMSSubscription) RecordID() string { return s.ID }

// CorrelationKey returns the booking ID used to deduplicate upserts.
func (s SMSSubscription) CorrelationKey() string { return s.BookingID }

// Active reports whether the subscription receives scheduled deliveries.
func (s SMSSubscription) Active() bool { return s.Enabled }

// Created returns the creation timestamp.
func (s SMSSubscription) Created() time.Time { return s.CreatedAt }

// Validate checks the transport payload before persistence.
func (s SMSSubscription) Validate() error {
	if s.PhoneE164 == "" {
		return fmt.Errorf("%w: phone number is required", ErrInvalidPayload)
	}
	return nil
}

// WithNewIdentity returns a copy carrying a fresh ID and creation time.
func (s SMSSubscription) WithNewIdentity(id string, createdAt time.Time) SMSSubscription {
	s.ID = id
	s.CreatedAt = createdAt
	return s
}

// WithIdentityFrom returns a copy that adopts the identity and delivery
// state (ID, creation time, last-sent marker) of an existing record.
func (s SMSSubscription) WithIdentityFrom(prev SMSSubscription) SMSSubscription {
	s.ID = prev.ID
	s.CreatedAt = prev.CreatedAt
	s.LastSentAt = prev.LastSentAt
	return s
}

// WithLastSent returns a copy with the last-sent marker set.
func (s SMSSubscription) WithLastSent(sentAt time.Time) SMSSubscription {
	s.LastSentAt = &sentAt
	return s
}

// WithEnabled returns a copy with the enabled flag set.
func (s SMSSubscription) WithEnabled(enabled bool) SMSSubscription {
	s.Enabled = enabled
	return s
}

// PushKeys holds the client key material required to encrypt a Web Push
// message for one browser subscription.
type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushCredential is the browser-issued delivery target: the push service
// endpoint URL plus its encryption keys. The endpoint doubles as the
// correlation key of the subscription.
type PushCredential struct {
	Endpoint string   `json:"endpoint"`
	Keys     PushKeys `json:"keys"`
}

// PushSubscription is a recurring Web Push notification subscription.
// There is at most one per endpoint; booking context is optional and
// only used to compose message bodies.
type PushSubscription struct {
	ID          string         `json:"id"`
	BookingID   string         `json:"booking_id,omitempty"`
	Temple      string         `json:"temple,omitempty"`
	QueueNumber int            `json:"queue_number,omitempty"`
	TimeSlot    string         `json:"time_slot,omitempty"`
	Enabled     bool           `json:"enabled"`
	Credential  PushCredential `json:"subscription"`
	CreatedAt   time.Time      `json:"created_at"`
	LastSentAt  *time.Time     `json:"last_sent_at,omitempty"`
}

// RecordID returns the stable primary key of the subscription.
func (s PushSubscription) RecordID() string { return s.ID }

// CorrelationKey returns the push endpoint used to deduplicate upserts.
func (s PushSubscription) CorrelationKey() string { return s.Credential.Endpoint }

// Active reports whether the subscription receives scheduled deliveries.
func (s PushSubscription) Active() bool { return s.Enabled }

// Created returns the creation timestamp.
func (s PushSubscription) Created() time.Time { return s.CreatedAt }

// Validate checks the transport payload before persistence.
func (s PushSubscription) Validate() error {
	if s.Credential.Endpoint == "" {
		return fmt.Errorf("%w: subscription endpoint is required", ErrInvalidPayload)
	}
	return nil
}

// WithNewIdentity returns a copy carrying a fresh ID and creation time.
func (s PushSubscription) WithNewIdentity(id string, createdAt time.Time) PushSubscription {
	s.ID = id
	s.CreatedAt = createdAt
	return s
}

// WithIdentityFrom returns a copy that adopts the identity and delivery
// state (ID, creation time, last-sent marker) of an existing record.
func (s PushSubscription) WithIdentityFrom(prev PushSubscription) PushSubscription {
	s.ID = prev.ID
	s.CreatedAt = prev.CreatedAt
	s.LastSentAt = prev.LastSentAt
	return s
}

// WithLastSent returns a copy with the last-sent marker set.
func (s PushSubscription) WithLastSent(sentAt time.Time) PushSubscription {
	s.LastSentAt = &sentAt
	return s
}

// WithEnabled returns a copy with the enabled flag set.
func (s PushSubscription) WithEnabled(enabled bool) PushSubscription {
	s.Enabled = enabled
	return s
}
