package config

import (
	"fmt"
	"strings"
	"time"
)

// parseDuration reads a non-negative Go duration for key. Blank is zero.
func parseDuration(key, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: duration must be >= 0", key)
	}
	return d, nil
}

// mustDuration is for fields Validate already accepted; def covers blank
// and zero values.
func mustDuration(raw string, def time.Duration) time.Duration {
	d, err := parseDuration("", raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// PeopleDelayDuration is the spacing between the people button's posts.
// Zero posts all three at once.
func (d DemoConfig) PeopleDelayDuration() time.Duration {
	return mustDuration(d.PeopleDelay, 0)
}

// PollTimeoutDuration is the long-poll timeout, 10s when unset.
func (t TelegramConfig) PollTimeoutDuration() time.Duration {
	return mustDuration(t.PollTimeout, 10*time.Second)
}
