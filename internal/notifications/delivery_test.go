package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandirops/queueline/internal/domain"
)

type fakeSMSSender struct {
	configured bool
	sent       []string
	err        error
}

func (f *fakeSMSSender) IsConfigured() bool { return f.configured }

func (f *fakeSMSSender) Send(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

type fakePushSender struct {
	configured bool
	publicKey  string
	payloads   [][]byte
	endpoints  []string
	err        error
}

func (f *fakePushSender) IsConfigured() bool { return f.configured }

func (f *fakePushSender) PublicKey() string { return f.publicKey }

func (f *fakePushSender) Send(_ context.Context, cred domain.PushCredential, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.endpoints = append(f.endpoints, cred.Endpoint)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestSMSDelivery_ReadyEvenWhenUnconfigured(t *testing.T) {
	delivery := NewSMSDelivery(&fakeSMSSender{configured: false})
	assert.True(t, delivery.Ready())
}

func TestSMSDelivery_Send(t *testing.T) {
	sender := &fakeSMSSender{configured: true}
	delivery := NewSMSDelivery(sender)

	sub := domain.SMSSubscription{
		PhoneE164:   "+919876543210",
		Temple:      "Somnath",
		QueueNumber: 42,
		Enabled:     true,
	}
	update := QueueUpdate{WaitMinutes: 47, At: time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)}

	require.NoError(t, delivery.Send(context.Background(), sub, update))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "+919876543210|")
	assert.Contains(t, sender.sent[0], "Temple: Somnath")
	assert.Contains(t, sender.sent[0], "Estimated wait: 47 min")
}

func TestPushDelivery_ReadyTracksConfiguration(t *testing.T) {
	assert.False(t, NewPushDelivery(&fakePushSender{configured: false}).Ready())
	assert.True(t, NewPushDelivery(&fakePushSender{configured: true}).Ready())
}

func TestPushDelivery_Send(t *testing.T) {
	sender := &fakePushSender{configured: true}
	delivery := NewPushDelivery(sender)

	sub := domain.PushSubscription{
		Temple:      "Dwarka",
		QueueNumber: 7,
		Enabled:     true,
		Credential: domain.PushCredential{
			Endpoint: "https://push.example.com/abc",
			Keys:     domain.PushKeys{P256dh: "p256dh-key", Auth: "auth"},
		},
	}
	update := QueueUpdate{WaitMinutes: 38, At: time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)}

	require.NoError(t, delivery.Send(context.Background(), sub, update))

	require.Len(t, sender.payloads, 1)
	assert.Equal(t, []string{"https://push.example.com/abc"}, sender.endpoints)

	var payload PushPayload
	require.NoError(t, json.Unmarshal(sender.payloads[0], &payload))
	assert.Equal(t, "Temple Queue Update", payload.Title)
	require.NotNil(t, payload.Data)
	assert.Equal(t, "Dwarka", payload.Data.Temple)
	assert.Equal(t, 7, payload.Data.QueueNumber)
}

func TestPushDelivery_SendFillsDefaults(t *testing.T) {
	sender := &fakePushSender{configured: true}
	delivery := NewPushDelivery(sender)

	sub := domain.PushSubscription{
		Enabled: true,
		Credential: domain.PushCredential{
			Endpoint: "https://push.example.com/abc",
		},
	}

	require.NoError(t, delivery.Send(context.Background(), sub, QueueUpdate{WaitMinutes: 45, At: time.Now()}))

	var payload PushPayload
	require.NoError(t, json.Unmarshal(sender.payloads[0], &payload))
	assert.Equal(t, "Temple", payload.Data.Temple)
	assert.Equal(t, 1, payload.Data.QueueNumber)
}

func TestPushDelivery_SendPropagatesSenderError(t *testing.T) {
	sendErr := errors.New("endpoint gone")
	delivery := NewPushDelivery(&fakePushSender{configured: true, err: sendErr})

	err := delivery.Send(context.Background(), domain.PushSubscription{
		Enabled:    true,
		Credential: domain.PushCredential{Endpoint: "https://push.example.com/abc"},
	}, QueueUpdate{WaitMinutes: 45, At: time.Now()})

	assert.ErrorIs(t, err, sendErr)
}
