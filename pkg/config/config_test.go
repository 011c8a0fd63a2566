package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TWILIO_ACCOUNT", "TWILIO_TOKEN", "TO_NUMBER", "FROM_NUMBER",
		"LOG_LEVEL", "LOG_FILE", "APP_ENV", "PICKUP_INTERVAL", "PICKUP_TIMEZONE",
		"TELEGRAM_ENABLED", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "PICKUP_LISTEN",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigCredentials(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "iphone7.yaml", `
TWILIO_ACCOUNT: AC123
TWILIO_TOKEN: secret
TO_NUMBER: "+15550001111"
FROM_NUMBER: "+15550002222"
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	creds := cfg.Credentials()
	assert.Equal(t, "AC123", creds.AccountID)
	assert.Equal(t, "secret", creds.AuthToken)
	assert.Equal(t, "+15550001111", creds.ToNumber)
	assert.Equal(t, "+15550002222", creds.FromNumber)
	assert.Empty(t, cfg.MissingCredentials())

	assert.Equal(t, DefaultInterval, cfg.Monitor.Interval)
	assert.Equal(t, DefaultTimezone, cfg.Monitor.Timezone)
	assert.Equal(t, DefaultLinger, cfg.Monitor.Linger)
	assert.Equal(t, DefaultTwilioBaseURL, cfg.Twilio.BaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigSections(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "iphone7.yml", `
TWILIO_ACCOUNT: AC123
monitor:
  interval: 5m
  timezone: America/New_York
  allow_overlap: true
  request_timeout: 10s
app:
  log_level: debug
server:
  listen: ":9090"
`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval)
	assert.Equal(t, "America/New_York", cfg.Monitor.Timezone)
	assert.True(t, cfg.Monitor.AllowOverlap)
	assert.Equal(t, 10*time.Second, cfg.Monitor.RequestTimeout)
	assert.Equal(t, DefaultPickupEndpoint, cfg.Monitor.Endpoint)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, []string{"TWILIO_TOKEN", "TO_NUMBER", "FROM_NUMBER"}, cfg.MissingCredentials())
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "iphone7.yaml")

	_, err := LoadConfig(missing, true)
	assert.ErrorIs(t, err, ErrConfigNotFound)

	cfg, err := LoadConfig(missing, false)
	require.NoError(t, err)
	assert.Len(t, cfg.MissingCredentials(), 4)
	assert.Equal(t, DefaultInterval, cfg.Monitor.Interval)
}

func TestLoadConfigInvalidFormat(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "iphone7.yaml", "TWILIO_ACCOUNT: [unterminated")
	_, err := LoadConfig(path, true)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	path = writeFile(t, "iphone7.toml", "a = 1")
	_, err = LoadConfig(path, true)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoadConfigJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "iphone7.json", `{"TWILIO_ACCOUNT": "AC9", "monitor": {"interval": "2m"}}`)

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "AC9", cfg.TwilioAccount)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.Interval)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "iphone7.yaml", "TWILIO_ACCOUNT: from-file\nTO_NUMBER: \"+1\"\n")
	t.Setenv("TWILIO_ACCOUNT", "from-env")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PICKUP_INTERVAL", "30s")

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TwilioAccount)
	assert.Equal(t, "+1", cfg.ToNumber)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("TWILIO_TOKEN"))
	path := writeFile(t, ".env", "TWILIO_TOKEN=dotenv-token\n")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path))
	assert.Equal(t, "dotenv-token", os.Getenv("TWILIO_TOKEN"))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }, ErrInvalidValue},
		{"bad timezone", func(c *Config) { c.Monitor.Timezone = "Mars/Olympus" }, ErrInvalidValue},
		{"bad log level", func(c *Config) { c.App.LogLevel = "chatty" }, ErrInvalidValue},
		{"long linger", func(c *Config) { c.Monitor.Linger = time.Hour }, ErrInvalidValue},
		{"empty endpoint", func(c *Config) { c.Monitor.Endpoint = "" }, ErrMissingRequired},
		{"telegram without token", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.ChatID = "1"
		}, ErrMissingRequired},
		{"telegram bad chat", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "t"
			c.Telegram.ChatID = "abc"
		}, ErrInvalidValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			cfg := getDefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}
