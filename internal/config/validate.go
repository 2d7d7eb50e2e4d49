package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"typednotify/internal/schedule"
)

const (
	PackingMetadata = "metadata"
	PackingSubject  = "subject"

	defaultPeopleDelay = "2s"
	defaultPollTimeout = "10s"
	defaultEditsPerSec = 1
)

// Default returns a config that runs the console demo without a heartbeat.
func Default() *Config {
	cfg := &Config{
		Logging:   LoggingConfig{Level: "info", Console: true},
		Transport: TransportConfig{Console: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills omitted fields in place.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	c.Demo.Packing = strings.ToLower(strings.TrimSpace(c.Demo.Packing))
	if c.Demo.Packing == "" {
		c.Demo.Packing = PackingMetadata
	}
	c.Demo.Heartbeat = strings.TrimSpace(c.Demo.Heartbeat)
	if strings.TrimSpace(c.Demo.PeopleDelay) == "" {
		c.Demo.PeopleDelay = defaultPeopleDelay
	}
	if strings.TrimSpace(c.Transport.Telegram.PollTimeout) == "" {
		c.Transport.Telegram.PollTimeout = defaultPollTimeout
	}
	if c.Transport.Telegram.EditsPerSec == 0 {
		c.Transport.Telegram.EditsPerSec = defaultEditsPerSec
	}
}

// Validate checks a config after defaults were applied.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch c.Demo.Packing {
	case PackingMetadata, PackingSubject:
	default:
		return fmt.Errorf("demo.packing: must be %q or %q, got %q", PackingMetadata, PackingSubject, c.Demo.Packing)
	}
	if _, err := parseDuration("demo.people_delay", c.Demo.PeopleDelay); err != nil {
		return err
	}
	if hb := strings.TrimSpace(c.Demo.Heartbeat); hb != "" {
		if _, err := schedule.Parse(hb); err != nil {
			return fmt.Errorf("demo.heartbeat: %w", err)
		}
	}
	if tz := strings.TrimSpace(c.Demo.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("demo.timezone: invalid %q: %w", tz, err)
		}
	}
	if _, err := parseDuration("transport.telegram.poll_timeout", c.Transport.Telegram.PollTimeout); err != nil {
		return err
	}
	if c.Transport.Telegram.EditsPerSec < 0 {
		return fmt.Errorf("transport.telegram.edits_per_sec must be >= 0")
	}
	if c.Transport.Telegram.Enabled {
		if strings.TrimSpace(c.Transport.Telegram.Token) == "" {
			return fmt.Errorf("transport.telegram.token is required when telegram is enabled")
		}
		if c.Transport.Telegram.ChatID == 0 {
			return fmt.Errorf("transport.telegram.chat_id is required when telegram is enabled")
		}
	}
	if !c.Transport.Console && !c.Transport.Telegram.Enabled {
		return fmt.Errorf("transport: enable console or telegram")
	}
	return nil
}

// Location returns the heartbeat timezone (Local when unset).
func (c *Config) Location() *time.Location {
	if tz := strings.TrimSpace(c.Demo.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}
