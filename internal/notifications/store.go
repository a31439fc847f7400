// Package notifications implements the temple-queue subscription stores
// and the recurring delivery schedulers for the SMS and Web Push
// transports.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mandirops/queueline/internal/domain"
)

// Record is the shape a subscription type must expose to be managed by
// a Store. Methods return copies; records are treated as immutable
// values inside the store.
type Record[R any] interface {
	RecordID() string
	CorrelationKey() string
	Active() bool
	Created() time.Time
	Validate() error
	WithNewIdentity(id string, createdAt time.Time) R
	WithIdentityFrom(prev R) R
	WithLastSent(sentAt time.Time) R
	WithEnabled(enabled bool) R
}

// DisableOutcome reports what Disable actually changed.
type DisableOutcome string

// Disable outcomes.
const (
	OutcomeDisabled        DisableOutcome = "disabled"
	OutcomeAlreadyDisabled DisableOutcome = "already_disabled"
	OutcomeNotFound        DisableOutcome = "not_found"
)

// Store is a durable subscription record set persisted as one JSON
// file. Every mutation rewrites the whole file, which keeps the format
// trivially inspectable but makes mutation cost O(total records); this
// is a known ceiling, acceptable at the expected scale of hundreds to
// low thousands of subscriptions.
//
// All operations serialize on one mutex, so a read-modify-write is
// atomic with respect to other callers of the same store.
type Store[R Record[R]] struct {
	path    string
	aliases map[string]string

	mu sync.Mutex
}

// NewStore creates a store backed by the JSON file at path. The aliases
// table maps legacy field spellings to their canonical names and is
// consulted once per record at load time.
func NewStore[R Record[R]](path string, aliases map[string]string) *Store[R] {
	return &Store[R]{path: path, aliases: aliases}
}

// smsFieldAliases maps legacy camelCase spellings, written by earlier
// versions of the backend, to the canonical snake_case names.
var smsFieldAliases = map[string]string{
	"bookingId":   "booking_id",
	"phone":       "phone_e164",
	"queueNumber": "queue_number",
	"timeSlot":    "time_slot",
	"createdAt":   "created_at",
	"lastSentAt":  "last_sent_at",
}

var pushFieldAliases = map[string]string{
	"bookingId":   "booking_id",
	"queueNumber": "queue_number",
	"timeSlot":    "time_slot",
	"createdAt":   "created_at",
	"lastSentAt":  "last_sent_at",
}

// NewSMSStore creates the SMS subscription store.
func NewSMSStore(path string) *Store[domain.SMSSubscription] {
	return NewStore[domain.SMSSubscription](path, smsFieldAliases)
}

// NewPushStore creates the Web Push subscription store.
func NewPushStore(path string) *Store[domain.PushSubscription] {
	return NewStore[domain.PushSubscription](path, pushFieldAliases)
}

// All returns every persisted subscription, enabled or not. A missing
// or corrupt backing file yields an empty slice, never an error: the
// scheduler depends on this being safe to call unconditionally.
func (s *Store[R]) All(_ context.Context) []R {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// SaveAll replaces the persisted record set.
func (s *Store[R]) SaveAll(_ context.Context, records []R) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(records)
}

// Upsert creates a subscription or fully replaces the mutable fields of
// the record sharing its correlation key. The existing record's ID,
// creation time and last-sent marker survive the replacement.
func (s *Store[R]) Upsert(_ context.Context, sub R) (R, error) {
	var zero R
	if err := sub.Validate(); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	for i, existing := range records {
		if existing.CorrelationKey() != sub.CorrelationKey() {
			continue
		}
		updated := sub.WithIdentityFrom(existing)
		records[i] = updated
		if err := s.saveLocked(records); err != nil {
			return zero, err
		}
		return updated, nil
	}

	created := sub.WithNewIdentity(uuid.NewString(), time.Now().UTC())
	records = append(records, created)
	if err := s.saveLocked(records); err != nil {
		return zero, err
	}
	return created, nil
}

// MarkSent stamps the record with the given ID as delivered now. An
// unknown ID is a silent no-op.
func (s *Store[R]) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	for i := range records {
		if records[i].RecordID() != id {
			continue
		}
		records[i] = records[i].WithLastSent(time.Now().UTC())
		return s.saveLocked(records)
	}
	return nil
}

// Disable soft-deletes the subscription matching the correlation key.
// The record is retained so repeated unsubscribes stay idempotent and
// can be told apart from an unknown key.
func (s *Store[R]) Disable(_ context.Context, key string) (DisableOutcome, error) {
	if key == "" {
		return OutcomeNotFound, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	for i := range records {
		if records[i].CorrelationKey() != key {
			continue
		}
		if !records[i].Active() {
			return OutcomeAlreadyDisabled, nil
		}
		records[i] = records[i].WithEnabled(false)
		if err := s.saveLocked(records); err != nil {
			return OutcomeNotFound, err
		}
		return OutcomeDisabled, nil
	}
	return OutcomeNotFound, nil
}

func (s *Store[R]) loadLocked() []R {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read subscription file, treating as empty", "path", s.path, "error", err)
		}
		return nil
	}

	items, err := extractItems(data)
	if err != nil {
		slog.Warn("corrupt subscription file, treating as empty", "path", s.path, "error", err)
		return nil
	}

	records := make([]R, 0, len(items))
	for _, item := range items {
		rec, err := s.decodeRecord(item)
		if err != nil {
			slog.Warn("skipping unreadable subscription record", "path", s.path, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// extractItems accepts either a bare array of records or the legacy
// wrapper object with a "subscriptions" key.
func extractItems(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapper struct {
		Subscriptions []json.RawMessage `json:"subscriptions"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Subscriptions, nil
}

// decodeRecord canonicalizes legacy field names via the alias table,
// fills defaults the earlier format left implicit (enabled, identity)
// and decodes into the concrete record type.
func (s *Store[R]) decodeRecord(item json.RawMessage) (R, error) {
	var zero R

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return zero, err
	}

	for legacy, canonical := range s.aliases {
		value, ok := fields[legacy]
		if !ok {
			continue
		}
		if _, exists := fields[canonical]; !exists {
			fields[canonical] = value
		}
		delete(fields, legacy)
	}

	if _, ok := fields["enabled"]; !ok {
		fields["enabled"] = json.RawMessage("true")
	}

	canonical, err := json.Marshal(fields)
	if err != nil {
		return zero, err
	}

	var rec R
	if err := json.Unmarshal(canonical, &rec); err != nil {
		return zero, err
	}

	if rec.RecordID() == "" || rec.Created().IsZero() {
		id := rec.RecordID()
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := rec.Created()
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rec = rec.WithNewIdentity(id, createdAt)
	}
	return rec, nil
}

func (s *Store[R]) saveLocked(records []R) error {
	if records == nil {
		records = []R{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist subscriptions: %w", err)
	}
	return nil
}
