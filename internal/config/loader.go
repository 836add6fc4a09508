package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".habitgrid"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("HABITGRID_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load process env vars from ~/.config/habitgrid/env (and fallbacks) first.
	LoadEnvFileCandidates()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If file doesn't exist, continue with defaults.

	// Override with environment variables for each group.
	envconfig.Process("HABITGRID_PATHS", &cfg.Paths)
	envconfig.Process("HABITGRID_CHANNELS_TELEGRAM", &cfg.Channels.Telegram)
	envconfig.Process("HABITGRID_CHANNELS_WHATSAPP", &cfg.Channels.WhatsApp)
	envconfig.Process("HABITGRID_CHANNELS_SLACK", &cfg.Channels.Slack)
	envconfig.Process("HABITGRID_REPORT", &cfg.Report)
	envconfig.Process("HABITGRID_EVENTS", &cfg.Events)

	// Common shorthand for the Telegram token.
	if cfg.Channels.Telegram.Token == "" {
		if tok := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); tok != "" {
			cfg.Channels.Telegram.Token = tok
		}
	}

	if strings.HasPrefix(cfg.Paths.DataDir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Paths.DataDir = filepath.Join(home, cfg.Paths.DataDir[1:])
		}
	}
	if cfg.Channels.Telegram.APIBase == "" {
		cfg.Channels.Telegram.APIBase = "https://api.telegram.org"
	}
	if cfg.Channels.Telegram.PollTimeoutSecs <= 0 {
		cfg.Channels.Telegram.PollTimeoutSecs = 30
	}
	if cfg.Report.Locale == "" {
		cfg.Report.Locale = "en"
	}

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// TrackerDBPath returns the tracker database location under the data dir.
func (c *Config) TrackerDBPath() string {
	return filepath.Join(c.Paths.DataDir, "tracker.db")
}

// WhatsAppDBPath returns the WhatsApp session store location.
func (c *Config) WhatsAppDBPath() string {
	return filepath.Join(c.Paths.DataDir, "whatsapp.db")
}
