// Package sms provides SMS delivery via the Twilio REST API.
package sms

import (
	"context"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mandirops/queueline/internal/notifications"
)

// Config holds Twilio credentials.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Sender delivers SMS messages through Twilio. When the credential
// triple is absent the sender degrades to logging each message instead
// of failing, which keeps local development working without a provider
// account.
type Sender struct {
	config Config
	client *twilio.RestClient
}

// NewSender creates a new SMS sender.
func NewSender(config Config) *Sender {
	s := &Sender{config: config}
	if s.IsConfigured() {
		s.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: config.AccountSID,
			Password: config.AuthToken,
		})
	}

	slog.Info("sms sender configured", "twilio_configured", s.IsConfigured())
	return s
}

// IsConfigured reports whether the account SID, auth token and from
// number are all present.
func (s *Sender) IsConfigured() bool {
	return s.config.AccountSID != "" && s.config.AuthToken != "" && s.config.FromNumber != ""
}

// Send delivers one SMS to the given E.164 number.
func (s *Sender) Send(_ context.Context, to, body string) error {
	if !s.IsConfigured() {
		slog.Info("sms sender unconfigured, logging message instead",
			"to", to,
			"body", body,
		)
		return nil
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.config.FromNumber)
	params.SetBody(body)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return &notifications.DeliveryError{Transport: "sms", Err: err}
	}

	if msg.Sid != nil {
		slog.Debug("sms sent", "to", to, "sid", *msg.Sid)
	}
	return nil
}
