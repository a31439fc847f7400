// Package webpush provides Web Push delivery authorized with VAPID
// keys.
package webpush

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	webpushgo "github.com/SherClockHolmes/webpush-go"

	"github.com/mandirops/queueline/internal/domain"
	"github.com/mandirops/queueline/internal/notifications"
)

const (
	defaultSubject = "mailto:admin@example.com"
	defaultTTL     = 60
)

// Config holds the VAPID key pair and contact subject.
type Config struct {
	VAPIDPublicKey string
	// VAPIDPrivateKey is either the raw key or a path to a file
	// containing it (common in local dev via .env).
	VAPIDPrivateKey string
	Subject         string
}

// Sender delivers Web Push messages. Unlike SMS there is no logging
// fallback: sending without a configured key pair is an error, and the
// scheduler skips the transport entirely while unconfigured.
type Sender struct {
	config Config
}

// NewSender creates a new Web Push sender.
func NewSender(config Config) *Sender {
	config.VAPIDPrivateKey = resolvePrivateKey(config.VAPIDPrivateKey)
	if config.Subject == "" {
		config.Subject = defaultSubject
	}

	s := &Sender{config: config}
	slog.Info("web push sender configured", "vapid_configured", s.IsConfigured())
	return s
}

// resolvePrivateKey reads the key from a file when the value names one,
// otherwise treats the value as the raw key.
func resolvePrivateKey(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	info, err := os.Stat(value)
	if err != nil || !info.Mode().IsRegular() {
		return value
	}

	data, err := os.ReadFile(value)
	if err != nil {
		slog.Warn("failed to read VAPID private key file", "path", value, "error", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}

// IsConfigured reports whether both halves of the VAPID key pair are
// present.
func (s *Sender) IsConfigured() bool {
	return s.config.VAPIDPublicKey != "" && s.config.VAPIDPrivateKey != ""
}

// PublicKey returns the public half of the VAPID key pair, empty when
// unconfigured.
func (s *Sender) PublicKey() string {
	return s.config.VAPIDPublicKey
}

// Send delivers one push message to the given browser subscription.
func (s *Sender) Send(ctx context.Context, cred domain.PushCredential, payload []byte) error {
	if !s.IsConfigured() {
		return notifications.ErrNotConfigured
	}

	sub := &webpushgo.Subscription{
		Endpoint: cred.Endpoint,
		Keys: webpushgo.Keys{
			P256dh: cred.Keys.P256dh,
			Auth:   cred.Keys.Auth,
		},
	}

	resp, err := webpushgo.SendNotificationWithContext(ctx, payload, sub, &webpushgo.Options{
		Subscriber:      s.config.Subject,
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		TTL:             defaultTTL,
	})
	if err != nil {
		return &notifications.DeliveryError{Transport: "webpush", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// 404/410 mean the browser dropped the subscription; the record
	// stays until an explicit unsubscribe disables it.
	if resp.StatusCode >= http.StatusBadRequest {
		return &notifications.DeliveryError{
			Transport: "webpush",
			Err:       fmt.Errorf("push endpoint returned status %d", resp.StatusCode),
		}
	}
	return nil
}
