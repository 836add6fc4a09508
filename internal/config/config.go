// Package config provides configuration types and loading for habitgrid.
package config

// Config is the root configuration struct.
// Top-level groups: Paths, Channels, Report, Events.
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Channels ChannelsConfig `json:"channels"`
	Report   ReportConfig   `json:"report"`
	Events   EventsConfig   `json:"events"`
}

// ---------------------------------------------------------------------------
// Paths – filesystem locations
// ---------------------------------------------------------------------------

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	// DataDir holds the tracker database and channel session state.
	DataDir string `json:"dataDir" envconfig:"DATA_DIR"`
}

// ---------------------------------------------------------------------------
// Channels – messaging integrations
// ---------------------------------------------------------------------------

// ChannelsConfig contains all channel configurations.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Slack    SlackConfig    `json:"slack"`
}

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled     bool   `json:"enabled" envconfig:"ENABLED"`
	Token       string `json:"token" envconfig:"TOKEN"`
	APIBase     string `json:"apiBase,omitempty" envconfig:"API_BASE"`
	BotUsername string `json:"botUsername,omitempty" envconfig:"BOT_USERNAME"`
	// PollTimeoutSecs is the getUpdates long-poll timeout.
	PollTimeoutSecs int `json:"pollTimeoutSecs" envconfig:"POLL_TIMEOUT_SECS"`
}

// WhatsAppConfig configures the native WhatsApp channel.
type WhatsAppConfig struct {
	Enabled bool `json:"enabled" envconfig:"ENABLED"`
	// Chats lists the group JIDs the tracker listens in. Empty means all.
	Chats []string `json:"chats"`
}

// SlackConfig configures the Slack channel (socket mode).
type SlackConfig struct {
	Enabled  bool   `json:"enabled" envconfig:"ENABLED"`
	BotToken string `json:"botToken" envconfig:"BOT_TOKEN"`
	AppToken string `json:"appToken" envconfig:"APP_TOKEN"`
}

// ---------------------------------------------------------------------------
// Report – calendar rendering
// ---------------------------------------------------------------------------

// ReportConfig controls how the weekly calendar is rendered and delivered.
type ReportConfig struct {
	// Locale selects the month-name table ("en", "ru").
	Locale string `json:"locale" envconfig:"LOCALE"`
	// Pin asks the transport to pin the report message where supported.
	Pin bool `json:"pin" envconfig:"PIN"`
}

// ---------------------------------------------------------------------------
// Events – optional Kafka mark-event stream
// ---------------------------------------------------------------------------

// EventsConfig configures the optional Kafka publisher for mark events.
type EventsConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers string `json:"brokers" envconfig:"BROKERS"`
	Topic   string `json:"topic" envconfig:"TOPIC"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: "~/.habitgrid",
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				APIBase:         "https://api.telegram.org",
				PollTimeoutSecs: 30,
			},
		},
		Report: ReportConfig{
			Locale: "en",
		},
		Events: EventsConfig{
			Enabled: false,
			Brokers: "localhost:9092",
			Topic:   "habitgrid.marks",
		},
	}
}
