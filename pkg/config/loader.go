package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at configPath, fills defaults and merges
// environment overrides. A missing file yields ErrConfigNotFound when
// required is set, and the default configuration otherwise.
func LoadConfig(configPath string, required bool) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if required {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
			}
			config := getDefaultConfig()
			mergeEnvVars(config)
			return config, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}

	config := &Config{}
	switch ext := strings.ToLower(filepath.Ext(configPath)); ext {
	case ".yaml", ".yml", ".json", "":
		// JSON documents are valid YAML, so one decoder covers both.
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	config.applyDefaults()
	mergeEnvVars(config)
	return config, nil
}

// SaveConfig writes config as YAML, creating the parent directory.
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("config serialization failed: %w", err)
	}

	// credentials live in this file
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Template returns a config with every section populated and placeholder
// credentials, suitable for SaveConfig.
func Template() *Config {
	c := getDefaultConfig()
	c.TwilioAccount = "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	c.TwilioToken = "your_auth_token"
	c.ToNumber = "+15555550100"
	c.FromNumber = "+15555550199"
	return c
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// mergeEnvVars lets the environment override values from the file.
func mergeEnvVars(config *Config) {
	mergeCredentialEnvVars(config)
	mergeAppEnvVars(config)
	mergeMonitorEnvVars(config)
	mergeTelegramEnvVars(config)
	mergeServerEnvVars(config)
}

func mergeCredentialEnvVars(config *Config) {
	envMappings := map[string]*string{
		"TWILIO_ACCOUNT": &config.TwilioAccount,
		"TWILIO_TOKEN":   &config.TwilioToken,
		"TO_NUMBER":      &config.ToNumber,
		"FROM_NUMBER":    &config.FromNumber,
	}
	for envKey, field := range envMappings {
		if value := os.Getenv(envKey); value != "" {
			*field = value
		}
	}
}

func mergeAppEnvVars(config *Config) {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.App.LogLevel = logLevel
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		config.App.LogFile = logFile
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Environment = env
	}
}

func mergeMonitorEnvVars(config *Config) {
	if interval := getEnvDuration("PICKUP_INTERVAL", 0); interval != 0 {
		config.Monitor.Interval = interval
	}
	if tz := os.Getenv("PICKUP_TIMEZONE"); tz != "" {
		config.Monitor.Timezone = tz
	}
}

func mergeTelegramEnvVars(config *Config) {
	tg := config.Telegram
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg.BotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		tg.ChatID = chatID
	}
	tg.Enabled = getEnvBool("TELEGRAM_ENABLED", tg.Enabled)
}

func mergeServerEnvVars(config *Config) {
	if listen := os.Getenv("PICKUP_LISTEN"); listen != "" {
		config.Server.Listen = listen
	}
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}
