package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mandirops/queueline/internal/domain"
)

// SMSSender delivers one SMS message. Implemented by the Twilio sender
// in the sms subpackage.
type SMSSender interface {
	IsConfigured() bool
	Send(ctx context.Context, to, body string) error
}

// PushSender delivers one Web Push message. Implemented by the VAPID
// sender in the webpush subpackage.
type PushSender interface {
	IsConfigured() bool
	PublicKey() string
	Send(ctx context.Context, cred domain.PushCredential, payload []byte) error
}

// SMSDelivery adapts the SMS sender for the scheduler.
type SMSDelivery struct {
	sender SMSSender
}

// NewSMSDelivery creates the scheduler adapter for SMS.
func NewSMSDelivery(sender SMSSender) *SMSDelivery {
	return &SMSDelivery{sender: sender}
}

// Ready always reports true: an unconfigured SMS sender degrades to
// logging each message itself, which keeps local setups working.
func (d *SMSDelivery) Ready() bool { return true }

// Send composes the SMS body for one queue update and delivers it.
func (d *SMSDelivery) Send(ctx context.Context, sub domain.SMSSubscription, update QueueUpdate) error {
	body := buildMessageBody(sub.Temple, sub.QueueNumber, update.WaitMinutes, update.At)
	return d.sender.Send(ctx, sub.PhoneE164, body)
}

// PushDelivery adapts the Web Push sender for the scheduler.
type PushDelivery struct {
	sender PushSender
}

// NewPushDelivery creates the scheduler adapter for Web Push.
func NewPushDelivery(sender PushSender) *PushDelivery {
	return &PushDelivery{sender: sender}
}

// Ready reports whether the VAPID key pair is configured. Unlike SMS,
// push delivery is skipped wholesale when unconfigured.
func (d *PushDelivery) Ready() bool { return d.sender.IsConfigured() }

// Send composes the push payload for one queue update and delivers it.
func (d *PushDelivery) Send(ctx context.Context, sub domain.PushSubscription, update QueueUpdate) error {
	temple := sub.Temple
	if temple == "" {
		temple = fallbackTempleName
	}
	queueNumber := sub.QueueNumber
	if queueNumber < 1 {
		queueNumber = 1
	}

	payload := buildPushPayload(temple, queueNumber, update.WaitMinutes, update.At)
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	return d.sender.Send(ctx, sub.Credential, data)
}
