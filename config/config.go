package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LineToken         string   `yaml:"line_token"`
	LineTargetIDs     []string `yaml:"line_target_ids"`
	TelegramToken     string   `yaml:"telegram_token"`
	TelegramChatID    int64    `yaml:"telegram_chat_id"`
	OpenWeatherAPIKey string   `yaml:"openweather_api_key"`
	StoreURL          string   `yaml:"store_url"`
	NoteTag           string   `yaml:"note_tag"`
	QueryLimit        int      `yaml:"query_limit"`
	NotifyTimes       []string `yaml:"notify_times"`
	WindowOffsets     []int    `yaml:"window_offsets"`
	Timezone          string   `yaml:"timezone"`
	FetchTimeoutSec   int      `yaml:"fetch_timeout_secs"`
	RetentionDays     int      `yaml:"retention_days"`
	DBPath            string   `yaml:"db_path"`
	LogLevel          string   `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		NoteTag:         "[ノート]",
		QueryLimit:      50,
		NotifyTimes:     []string{"12:00", "20:00"},
		WindowOffsets:   []int{0, 1, 2},
		Timezone:        "Asia/Tokyo",
		FetchTimeoutSec: 10,
		RetentionDays:   14,
		DBPath:          "./notebot.db",
		LogLevel:        "info",
	}
}

// Load reads a YAML config file and returns a validated Config.
// Environment variables NOTEBOT_CONFIG and NOTEBOT_DB can override file path and db path.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("NOTEBOT_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if envDB := os.Getenv("NOTEBOT_DB"); envDB != "" {
		cfg.DBPath = envDB
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if c.LineToken == "" {
		return fmt.Errorf("line_token is required")
	}
	if len(c.LineTargetIDs) == 0 {
		return fmt.Errorf("line_target_ids must list at least one recipient")
	}
	if c.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("telegram_chat_id is required when telegram_token is set")
	}

	if len(c.NotifyTimes) == 0 {
		return fmt.Errorf("notify_times must list at least one time")
	}
	for _, t := range c.NotifyTimes {
		if err := ValidateTime(t); err != nil {
			return err
		}
	}

	if len(c.WindowOffsets) == 0 {
		return fmt.Errorf("window_offsets must list at least one offset")
	}
	for _, off := range c.WindowOffsets {
		if off < 0 || off > 2 {
			return fmt.Errorf("invalid window offset %d: must be 0, 1 or 2", off)
		}
	}

	if c.QueryLimit <= 0 {
		return fmt.Errorf("query_limit must be positive")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
