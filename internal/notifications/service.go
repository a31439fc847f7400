package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mandirops/queueline/internal/domain"
)

// Service provides subscription management for both transports on top
// of the stores and the push sender. Scheduled delivery lives in the
// Scheduler; the service covers the interactive paths (subscribe,
// unsubscribe, ad-hoc test sends).
type Service struct {
	smsStore   *Store[domain.SMSSubscription]
	pushStore  *Store[domain.PushSubscription]
	pushSender PushSender
}

// NewService creates a notifications service.
func NewService(smsStore *Store[domain.SMSSubscription], pushStore *Store[domain.PushSubscription], pushSender PushSender) *Service {
	return &Service{
		smsStore:   smsStore,
		pushStore:  pushStore,
		pushSender: pushSender,
	}
}

// SubscribeSMSInput contains data for an SMS subscription upsert.
type SubscribeSMSInput struct {
	BookingID   string
	Mobile      string
	Temple      string
	QueueNumber int
	TimeSlot    string
	Enabled     bool
}

// SubscribeSMS normalizes the phone number and upserts the subscription
// keyed by booking ID.
func (s *Service) SubscribeSMS(ctx context.Context, in SubscribeSMSInput) (domain.SMSSubscription, error) {
	phone, err := NormalizePhone(in.Mobile)
	if err != nil {
		return domain.SMSSubscription{}, err
	}

	sub, err := s.smsStore.Upsert(ctx, domain.SMSSubscription{
		BookingID:   in.BookingID,
		PhoneE164:   phone,
		Temple:      in.Temple,
		QueueNumber: in.QueueNumber,
		TimeSlot:    in.TimeSlot,
		Enabled:     in.Enabled,
	})
	if err != nil {
		return domain.SMSSubscription{}, fmt.Errorf("upsert sms subscription: %w", err)
	}

	slog.Info("sms subscription upserted",
		"subscription_id", sub.ID,
		"booking_id", sub.BookingID,
		"enabled", sub.Enabled,
	)
	return sub, nil
}

// SubscribePushInput contains data for a Web Push subscription upsert.
type SubscribePushInput struct {
	Credential  domain.PushCredential
	BookingID   string
	Temple      string
	QueueNumber int
	TimeSlot    string
	Enabled     bool
}

// SubscribePush upserts the subscription keyed by push endpoint.
func (s *Service) SubscribePush(ctx context.Context, in SubscribePushInput) (domain.PushSubscription, error) {
	sub, err := s.pushStore.Upsert(ctx, domain.PushSubscription{
		BookingID:   in.BookingID,
		Temple:      in.Temple,
		QueueNumber: in.QueueNumber,
		TimeSlot:    in.TimeSlot,
		Enabled:     in.Enabled,
		Credential:  in.Credential,
	})
	if err != nil {
		return domain.PushSubscription{}, err
	}

	slog.Info("push subscription upserted",
		"subscription_id", sub.ID,
		"enabled", sub.Enabled,
	)
	return sub, nil
}

// UnsubscribePush disables the subscription for the given endpoint.
func (s *Service) UnsubscribePush(ctx context.Context, endpoint string) (DisableOutcome, error) {
	return s.pushStore.Disable(ctx, endpoint)
}

// VAPIDPublicKey exposes the public half of the VAPID key pair for
// browser clients, or ErrNotConfigured when push is not set up.
func (s *Service) VAPIDPublicKey() (string, error) {
	key := s.pushSender.PublicKey()
	if key == "" {
		return "", ErrNotConfigured
	}
	return key, nil
}

// SendTestInput contains data for an ad-hoc push delivery.
type SendTestInput struct {
	// Endpoint restricts delivery to one subscription when non-empty.
	Endpoint string
	Title    string
	Body     string
	URL      string
}

// SendTestPush delivers an immediate test notification to every enabled
// push subscription (or the one matching the endpoint filter),
// bypassing the schedule. It returns the number of successful sends;
// individual failures are logged and skipped.
func (s *Service) SendTestPush(ctx context.Context, in SendTestInput) (int, error) {
	if !s.pushSender.IsConfigured() {
		return 0, ErrNotConfigured
	}

	subs := s.pushStore.All(ctx)
	if len(subs) == 0 {
		return 0, ErrNoSubscriptions
	}

	targets := subs
	if in.Endpoint != "" {
		var filtered []domain.PushSubscription
		for _, sub := range subs {
			if sub.Credential.Endpoint == in.Endpoint {
				filtered = append(filtered, sub)
			}
		}
		if len(filtered) == 0 {
			return 0, ErrEndpointNotFound
		}
		targets = filtered
	}

	payload, err := json.Marshal(PushPayload{
		Title: in.Title,
		Body:  in.Body,
		Tag:   "test",
		URL:   in.URL,
	})
	if err != nil {
		return 0, fmt.Errorf("encode test payload: %w", err)
	}

	sent := 0
	for _, sub := range targets {
		if !sub.Active() {
			continue
		}
		if err := s.pushSender.Send(ctx, sub.Credential, payload); err != nil {
			slog.Error("test push failed", "subscription_id", sub.ID, "error", err)
			recordDelivery("webpush", "failed")
			continue
		}
		if err := s.pushStore.MarkSent(ctx, sub.ID); err != nil {
			slog.Error("failed to mark subscription sent", "subscription_id", sub.ID, "error", err)
		}
		recordDelivery("webpush", "success")
		sent++
	}
	return sent, nil
}
