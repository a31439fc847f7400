package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			"all credentials present",
			Config{AccountSID: "AC123", AuthToken: "token", FromNumber: "+15551234567"},
			true,
		},
		{"empty config", Config{}, false},
		{"missing auth token", Config{AccountSID: "AC123", FromNumber: "+15551234567"}, false},
		{"missing from number", Config{AccountSID: "AC123", AuthToken: "token"}, false},
		{"missing account sid", Config{AuthToken: "token", FromNumber: "+15551234567"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewSender(tt.config)
			assert.Equal(t, tt.expected, sender.IsConfigured())
		})
	}
}

func TestSender_SendUnconfiguredLogsInstead(t *testing.T) {
	sender := NewSender(Config{})

	err := sender.Send(context.Background(), "+919876543210", "Temple Queue Update")
	require.NoError(t, err)
}
