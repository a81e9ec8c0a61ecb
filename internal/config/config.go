package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the bot.
type Config struct {
	DiscordToken      string
	ReminderChannelID string
	CommandPrefix     string
	DatabaseURL       string
	Location          *time.Location
	TickInterval      time.Duration
	GraceWindow       time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DiscordToken:      strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		ReminderChannelID: strings.TrimSpace(os.Getenv("REMINDER_CHANNEL_ID")),
		CommandPrefix:     strings.TrimSpace(os.Getenv("COMMAND_PREFIX")),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TickInterval:      parseDuration(os.Getenv("TICK_INTERVAL"), 20*time.Second),
		GraceWindow:       parseDuration(os.Getenv("GRACE_WINDOW"), 24*time.Hour),
	}

	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "remindbot.db"
	}

	tz := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if tz == "" {
		tz = "Europe/Berlin"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	cfg.Location = loc

	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.ReminderChannelID == "" {
		return cfg, fmt.Errorf("REMINDER_CHANNEL_ID is required")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
