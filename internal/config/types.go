package config

// Config is the notifydemo configuration.
//
// Files may be JSON or YAML (by extension). Unknown keys are rejected so
// typos surface on the first load or reload.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Demo      DemoConfig      `json:"demo"`
	Transport TransportConfig `json:"transport"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// DemoConfig controls the example screen.
//
// All durations are Go duration strings (e.g. "500ms", "2s").
type DemoConfig struct {
	// Packing is "metadata" (default) or "subject".
	Packing string `json:"packing,omitempty"`

	// PeopleDelay spaces the three person posts of the people button.
	PeopleDelay string `json:"people_delay,omitempty"`

	// Heartbeat is an optional schedule: cron ("*/5 * * * *", "@hourly",
	// "@every 30s"), a Go duration ("30s") or "HH:MM". Empty disables it.
	Heartbeat string `json:"heartbeat,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

type TransportConfig struct {
	Console  bool           `json:"console"`
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  int64  `json:"chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
	// EditsPerSec bounds how fast the screen message is edited.
	EditsPerSec int `json:"edits_per_sec,omitempty"`
}
