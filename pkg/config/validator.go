package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate checks the tuning sections. Missing Twilio credentials are not
// an error here; see MissingCredentials.
func (c *Config) Validate() error {
	if err := c.validateAppConfig(); err != nil {
		return err
	}
	if err := c.validateMonitorConfig(); err != nil {
		return err
	}
	if err := c.validateTelegramConfig(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAppConfig() error {
	if c.App == nil {
		return nil
	}
	validLevels := []string{"debug", "info", "warn", "warning", "error", "fatal"}
	if c.App.LogLevel != "" && !isValidValue(strings.ToLower(c.App.LogLevel), validLevels) {
		return fmt.Errorf("%w: app.log_level must be one of %v", ErrInvalidValue, validLevels)
	}
	validEnvs := []string{"development", "production"}
	if c.App.Environment != "" && !isValidValue(c.App.Environment, validEnvs) {
		return fmt.Errorf("%w: app.environment must be one of %v", ErrInvalidValue, validEnvs)
	}
	return nil
}

func (c *Config) validateMonitorConfig() error {
	m := c.Monitor
	if m == nil {
		return fmt.Errorf("%w: monitor", ErrMissingRequired)
	}
	if m.Endpoint == "" {
		return fmt.Errorf("%w: monitor.endpoint", ErrMissingRequired)
	}
	if m.Interval <= 0 {
		return fmt.Errorf("%w: monitor.interval must be positive", ErrInvalidValue)
	}
	if m.RequestTimeout < 0 {
		return fmt.Errorf("%w: monitor.request_timeout must not be negative", ErrInvalidValue)
	}
	if m.Linger < 0 || m.Linger > time.Minute {
		return fmt.Errorf("%w: monitor.linger must be between 0 and 1m", ErrInvalidValue)
	}
	if _, err := m.Location(); err != nil {
		return fmt.Errorf("%w: monitor.timezone %q: %v", ErrInvalidValue, m.Timezone, err)
	}
	return nil
}

func (c *Config) validateTelegramConfig() error {
	tg := c.Telegram
	if tg == nil || !tg.Enabled {
		return nil
	}
	if tg.BotToken == "" {
		return fmt.Errorf("%w: telegram.bot_token", ErrMissingRequired)
	}
	if _, err := tg.ChatIDInt(); err != nil {
		return fmt.Errorf("%w: telegram.chat_id must be numeric", ErrInvalidValue)
	}
	return nil
}

// ChatIDInt parses the configured chat ID.
func (t *TelegramConfig) ChatIDInt() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(t.ChatID), 10, 64)
}

// MissingCredentials lists the credential keys that are empty, in file order.
func (c *Config) MissingCredentials() []string {
	var missing []string
	for _, kv := range []struct {
		key, value string
	}{
		{"TWILIO_ACCOUNT", c.TwilioAccount},
		{"TWILIO_TOKEN", c.TwilioToken},
		{"TO_NUMBER", c.ToNumber},
		{"FROM_NUMBER", c.FromNumber},
	} {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.key)
		}
	}
	return missing
}

func isValidValue(value string, validValues []string) bool {
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
