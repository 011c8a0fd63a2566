package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultConfigPath      = "iphone7.yaml"
	DefaultPickupEndpoint  = "https://www.apple.com/shop/retail/pickup-message"
	DefaultPurchaseURL     = "http://www.apple.com/shop/buy-iphone/iphone-7"
	DefaultTimezone        = "America/Los_Angeles"
	DefaultInterval        = time.Minute
	DefaultRequestTimeout  = 30 * time.Second
	DefaultLinger          = 2 * time.Second
	DefaultTwilioBaseURL   = "https://api.twilio.com"
	DefaultTwilioTimeout   = 15 * time.Second
	DefaultTelegramTimeout = 15 * time.Second
)

// Config is the iphone7.yaml document. The four upper-case keys are the
// Twilio credentials; the lower-case sections are optional tuning.
type Config struct {
	TwilioAccount string `yaml:"TWILIO_ACCOUNT"`
	TwilioToken   string `yaml:"TWILIO_TOKEN"`
	ToNumber      string `yaml:"TO_NUMBER"`
	FromNumber    string `yaml:"FROM_NUMBER"`

	App      *AppConfig      `yaml:"app,omitempty"`
	Monitor  *MonitorConfig  `yaml:"monitor,omitempty"`
	Twilio   *TwilioConfig   `yaml:"twilio,omitempty"`
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
	Server   *ServerConfig   `yaml:"server,omitempty"`
}

// Credentials is the messaging identity used by the SMS notifier.
type Credentials struct {
	AccountID  string
	AuthToken  string
	FromNumber string
	ToNumber   string
}

// AppConfig represents application configuration settings
type AppConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	Environment string `yaml:"environment"`
}

// MonitorConfig controls the pickup endpoint and the watch schedule.
type MonitorConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	PurchaseURL    string        `yaml:"purchase_url"`
	Interval       time.Duration `yaml:"interval"`
	Timezone       string        `yaml:"timezone"`
	AllowOverlap   bool          `yaml:"allow_overlap"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Linger         time.Duration `yaml:"linger"`
}

type TwilioConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TelegramConfig enables an optional Telegram mirror of the SMS alert.
type TelegramConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BotToken    string        `yaml:"bot_token"`
	ChatID      string        `yaml:"chat_id"`
	APIEndpoint string        `yaml:"api_endpoint,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ServerConfig configures the optional status server. Empty Listen disables it.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// Credentials returns the Twilio identity from the top-level keys.
func (c *Config) Credentials() Credentials {
	return Credentials{
		AccountID:  c.TwilioAccount,
		AuthToken:  c.TwilioToken,
		FromNumber: c.FromNumber,
		ToNumber:   c.ToNumber,
	}
}

// Location resolves the configured time zone for the watch schedule.
func (m *MonitorConfig) Location() (*time.Location, error) {
	return time.LoadLocation(m.Timezone)
}

// IsDevelopment reports whether console-style logging should be used.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment != "production"
}

func getDefaultConfig() *Config {
	return &Config{
		App:      NewAppConfig(),
		Monitor:  NewMonitorConfig(),
		Twilio:   NewTwilioConfig(),
		Telegram: NewTelegramConfig(),
		Server:   NewServerConfig(),
	}
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		Environment: "development",
	}
}

func NewMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		Endpoint:       DefaultPickupEndpoint,
		PurchaseURL:    DefaultPurchaseURL,
		Interval:       DefaultInterval,
		Timezone:       DefaultTimezone,
		RequestTimeout: DefaultRequestTimeout,
		Linger:         DefaultLinger,
	}
}

func NewTwilioConfig() *TwilioConfig {
	return &TwilioConfig{
		BaseURL: DefaultTwilioBaseURL,
		Timeout: DefaultTwilioTimeout,
	}
}

func NewTelegramConfig() *TelegramConfig {
	return &TelegramConfig{
		Enabled:  getEnvBool("TELEGRAM_ENABLED", false),
		BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		Timeout:  DefaultTelegramTimeout,
	}
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen: getEnv("PICKUP_LISTEN", ""),
	}
}

// applyDefaults fills sections and zero values a partial file left empty.
func (c *Config) applyDefaults() {
	if c.App == nil {
		c.App = NewAppConfig()
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}

	if c.Monitor == nil {
		c.Monitor = NewMonitorConfig()
	}
	m := c.Monitor
	if m.Endpoint == "" {
		m.Endpoint = DefaultPickupEndpoint
	}
	if m.PurchaseURL == "" {
		m.PurchaseURL = DefaultPurchaseURL
	}
	if m.Interval == 0 {
		m.Interval = DefaultInterval
	}
	if m.Timezone == "" {
		m.Timezone = DefaultTimezone
	}
	if m.RequestTimeout == 0 {
		m.RequestTimeout = DefaultRequestTimeout
	}
	if m.Linger == 0 {
		m.Linger = DefaultLinger
	}

	if c.Twilio == nil {
		c.Twilio = NewTwilioConfig()
	}
	if c.Twilio.BaseURL == "" {
		c.Twilio.BaseURL = DefaultTwilioBaseURL
	}
	if c.Twilio.Timeout == 0 {
		c.Twilio.Timeout = DefaultTwilioTimeout
	}

	if c.Telegram == nil {
		c.Telegram = NewTelegramConfig()
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = DefaultTelegramTimeout
	}

	if c.Server == nil {
		c.Server = NewServerConfig()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return b
	}
	return defaultValue
}
