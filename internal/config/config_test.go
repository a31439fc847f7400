package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.MetricsPort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, time.Hour, cfg.Notifications.SMS.Interval())
	assert.Equal(t, time.Hour, cfg.Notifications.Push.Interval())
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_ProviderEnvVars(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_FROM_NUMBER", "+15551234567")
	t.Setenv("VAPID_PUBLIC_KEY", "BPub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("VAPID_SUBJECT", "mailto:ops@example.com")
	t.Setenv("NOTIFICATION_INTERVAL_SECONDS", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "AC123", cfg.Notifications.SMS.Twilio.AccountSID)
	assert.Equal(t, "secret", cfg.Notifications.SMS.Twilio.AuthToken)
	assert.Equal(t, "+15551234567", cfg.Notifications.SMS.Twilio.FromNumber)
	assert.Equal(t, "BPub", cfg.Notifications.Push.VAPID.PublicKey)
	assert.Equal(t, "priv", cfg.Notifications.Push.VAPID.PrivateKey)
	assert.Equal(t, "mailto:ops@example.com", cfg.Notifications.Push.VAPID.Subject)
	assert.Equal(t, 2*time.Minute, cfg.Notifications.SMS.Interval())

	// Push cadence inherits from SMS when not set explicitly.
	assert.Equal(t, 2*time.Minute, cfg.Notifications.Push.Interval())
}

func TestLoad_PushIntervalOverride(t *testing.T) {
	t.Setenv("NOTIFICATION_INTERVAL_SECONDS", "120")
	t.Setenv("PUSH_NOTIFICATION_INTERVAL_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Notifications.SMS.Interval())
	assert.Equal(t, 30*time.Second, cfg.Notifications.Push.Interval())
}

func TestLoad_PrefixedEnvVars(t *testing.T) {
	t.Setenv("QUEUELINE_SERVER__PORT", "9001")
	t.Setenv("QUEUELINE_LOG__LEVEL", "debug")
	t.Setenv("QUEUELINE_DATA__DIR", "/var/lib/queueline")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/lib/queueline", cfg.Data.Dir)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "8080"
log:
  level: warn
  format: json
notifications:
  sms:
    interval_seconds: 600
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("QUEUELINE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Minute, cfg.Notifications.SMS.Interval())
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"8080\"\n"), 0o644))
	t.Setenv("QUEUELINE_CONFIG", path)
	t.Setenv("QUEUELINE_SERVER__PORT", "9001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("QUEUELINE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}
