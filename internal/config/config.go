package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultOllamaURL        = "http://localhost:11434"
	DefaultIntentModel      = "kalanaya-intent-parser"
	DefaultEntityModel      = "kalanaya-entity-parser"
	DefaultTimeModel        = "kalanaya-time-parser"
	DefaultOracleTimeout    = 60 // seconds
	DefaultConfidenceMin    = 0.75
	DefaultMatchThreshold   = 0.5
	DefaultSearchMarginDays = 7
	DefaultTimezone         = "Asia/Kolkata"
	DefaultCalendarID       = "primary"
	DefaultCalendarTimeout  = 30 // seconds
	DefaultDigestAt         = "08:00"
	DefaultListMaxResults   = 10
)

type Config struct {
	Oracle   OracleConfig   `json:"oracle"`
	Pipeline PipelineConfig `json:"pipeline"`
	Calendar CalendarConfig `json:"calendar"`
	Channels ChannelsConfig `json:"channels"`
	Digest   DigestConfig   `json:"digest"`
}

type OracleConfig struct {
	BaseURL        string `json:"baseUrl"`
	IntentModel    string `json:"intentModel"`
	EntityModel    string `json:"entityModel"`
	TimeModel      string `json:"timeModel"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type PipelineConfig struct {
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
	MatchThreshold      float64 `json:"matchThreshold"`
	SearchMarginDays    int     `json:"searchMarginDays"`
	Timezone            string  `json:"timezone"`
	AllowPastCreate     bool    `json:"allowPastCreate"`
}

type CalendarConfig struct {
	BaseURL        string `json:"baseUrl"`
	CalendarID     string `json:"calendarId"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled      bool     `json:"enabled"`
	Token        string   `json:"token"`
	AllowFrom    []string `json:"allowFrom"`
	Proxy        string   `json:"proxy,omitempty"`
	NotifyChatID string   `json:"notifyChatId,omitempty"` // digest destination
}

type DigestConfig struct {
	Enabled bool   `json:"enabled"`
	At      string `json:"at"` // local time "HH:MM"
}

func DefaultConfig() *Config {
	return &Config{
		Oracle: OracleConfig{
			BaseURL:        DefaultOllamaURL,
			IntentModel:    DefaultIntentModel,
			EntityModel:    DefaultEntityModel,
			TimeModel:      DefaultTimeModel,
			TimeoutSeconds: DefaultOracleTimeout,
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: DefaultConfidenceMin,
			MatchThreshold:      DefaultMatchThreshold,
			SearchMarginDays:    DefaultSearchMarginDays,
			Timezone:            DefaultTimezone,
		},
		Calendar: CalendarConfig{
			CalendarID:     DefaultCalendarID,
			TimeoutSeconds: DefaultCalendarTimeout,
		},
		Channels: ChannelsConfig{},
		Digest: DigestConfig{
			Enabled: false,
			At:      DefaultDigestAt,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".kalanaya")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if url := os.Getenv("KALANAYA_OLLAMA_URL"); url != "" {
		cfg.Oracle.BaseURL = url
	}
	if model := os.Getenv("KALANAYA_INTENT_MODEL"); model != "" {
		cfg.Oracle.IntentModel = model
	}
	if model := os.Getenv("KALANAYA_ENTITY_MODEL"); model != "" {
		cfg.Oracle.EntityModel = model
	}
	if model := os.Getenv("KALANAYA_TIME_MODEL"); model != "" {
		cfg.Oracle.TimeModel = model
	}
	if url := os.Getenv("KALANAYA_CALENDAR_URL"); url != "" {
		cfg.Calendar.BaseURL = url
	}
	if token := os.Getenv("KALANAYA_CALENDAR_TOKEN"); token != "" {
		cfg.Calendar.Token = token
	}
	if id := os.Getenv("KALANAYA_CALENDAR_ID"); id != "" {
		cfg.Calendar.CalendarID = id
	}
	if token := os.Getenv("KALANAYA_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if tz := os.Getenv("KALANAYA_TIMEZONE"); tz != "" {
		cfg.Pipeline.Timezone = tz
	}
	if threshold := os.Getenv("KALANAYA_CONFIDENCE_THRESHOLD"); threshold != "" {
		if parsed, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Pipeline.ConfidenceThreshold = parsed
		}
	}

	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = DefaultOllamaURL
	}
	if cfg.Oracle.IntentModel == "" {
		cfg.Oracle.IntentModel = DefaultIntentModel
	}
	if cfg.Oracle.EntityModel == "" {
		cfg.Oracle.EntityModel = DefaultEntityModel
	}
	if cfg.Oracle.TimeModel == "" {
		cfg.Oracle.TimeModel = DefaultTimeModel
	}
	if cfg.Pipeline.ConfidenceThreshold <= 0 {
		cfg.Pipeline.ConfidenceThreshold = DefaultConfidenceMin
	}
	if cfg.Pipeline.MatchThreshold <= 0 {
		cfg.Pipeline.MatchThreshold = DefaultMatchThreshold
	}
	if cfg.Pipeline.SearchMarginDays <= 0 {
		cfg.Pipeline.SearchMarginDays = DefaultSearchMarginDays
	}
	if cfg.Pipeline.Timezone == "" {
		cfg.Pipeline.Timezone = DefaultTimezone
	}
	if cfg.Calendar.CalendarID == "" {
		cfg.Calendar.CalendarID = DefaultCalendarID
	}
	if cfg.Digest.At == "" {
		cfg.Digest.At = DefaultDigestAt
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
