// Package config loads application configuration from an optional YAML
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Log           LogConfig           `koanf:"log"`
	CORS          CORSConfig          `koanf:"cors"`
	Data          DataConfig          `koanf:"data"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// DataConfig locates the flat-file subscription stores.
type DataConfig struct {
	Dir string `koanf:"dir"`
}

// NotificationsConfig contains per-transport delivery settings.
type NotificationsConfig struct {
	SMS  SMSConfig  `koanf:"sms"`
	Push PushConfig `koanf:"push"`
}

// SMSConfig contains SMS scheduling and provider settings.
type SMSConfig struct {
	IntervalSeconds int          `koanf:"interval_seconds"`
	Twilio          TwilioConfig `koanf:"twilio"`
}

// Interval returns the SMS tick interval.
func (c SMSConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// TwilioConfig contains Twilio credentials.
type TwilioConfig struct {
	AccountSID string `koanf:"account_sid"`
	AuthToken  string `koanf:"auth_token"`
	FromNumber string `koanf:"from_number"`
}

// PushConfig contains Web Push scheduling and VAPID settings.
type PushConfig struct {
	IntervalSeconds int         `koanf:"interval_seconds"`
	VAPID           VAPIDConfig `koanf:"vapid"`
}

// Interval returns the push tick interval.
func (c PushConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// VAPIDConfig contains the Web Push key pair and contact subject.
type VAPIDConfig struct {
	PublicKey  string `koanf:"public_key"`
	PrivateKey string `koanf:"private_key"`
	Subject    string `koanf:"subject"`
}

// providerEnvVars maps conventional provider environment variables onto
// config keys, so deployments keep working with the variable names the
// providers document.
var providerEnvVars = map[string]string{
	"TWILIO_ACCOUNT_SID":                 "notifications.sms.twilio.account_sid",
	"TWILIO_AUTH_TOKEN":                  "notifications.sms.twilio.auth_token",
	"TWILIO_FROM_NUMBER":                 "notifications.sms.twilio.from_number",
	"VAPID_PUBLIC_KEY":                   "notifications.push.vapid.public_key",
	"VAPID_PRIVATE_KEY":                  "notifications.push.vapid.private_key",
	"VAPID_SUBJECT":                      "notifications.push.vapid.subject",
	"NOTIFICATION_INTERVAL_SECONDS":      "notifications.sms.interval_seconds",
	"PUSH_NOTIFICATION_INTERVAL_SECONDS": "notifications.push.interval_seconds",
}

const envPrefix = "QUEUELINE_"

// Load reads configuration in increasing precedence: an optional YAML
// file named by QUEUELINE_CONFIG, conventional provider variables, and
// QUEUELINE_-prefixed variables (double underscore separates nesting,
// e.g. QUEUELINE_SERVER__PORT).
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("QUEUELINE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// Variables outside the translation table are dropped.
			return providerEnvVars[key], value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load provider env: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			if key == "CONFIG" {
				return "", value
			}
			return strings.ReplaceAll(strings.ToLower(key), "__", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Server.MetricsPort == "" {
		cfg.Server.MetricsPort = "9090"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Notifications.SMS.IntervalSeconds <= 0 {
		cfg.Notifications.SMS.IntervalSeconds = 3600
	}
	// Push inherits the SMS cadence unless overridden.
	if cfg.Notifications.Push.IntervalSeconds <= 0 {
		cfg.Notifications.Push.IntervalSeconds = cfg.Notifications.SMS.IntervalSeconds
	}
}
