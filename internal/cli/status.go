package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ habitgrid Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 habitgrid Status")
		fmt.Printf("Version: %s\n", version)

		configPath, err := config.ConfigPath()
		if err == nil {
			if _, err := os.Stat(configPath); err == nil {
				fmt.Println("Config:   ✓ Found (" + configPath + ")")
			} else {
				fmt.Println("Config:   ✗ Not found (run 'habitgrid onboard' first)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config:   ? Unable to load (%v)\n", err)
			return
		}

		if _, err := os.Stat(cfg.TrackerDBPath()); err == nil {
			fmt.Println("Tracker:  ✓ Database found (" + cfg.TrackerDBPath() + ")")
		} else {
			fmt.Println("Tracker:  ✗ No database yet (created on first run)")
		}

		if cfg.Channels.Telegram.Enabled {
			if cfg.Channels.Telegram.Token != "" {
				fmt.Println("Telegram: ✓ Enabled, token set")
			} else {
				fmt.Println("Telegram: ✗ Enabled but no token")
			}
		} else {
			fmt.Println("Telegram: ✗ Disabled")
		}

		if cfg.Channels.WhatsApp.Enabled {
			if _, err := os.Stat(cfg.WhatsAppDBPath()); err == nil {
				fmt.Println("WhatsApp: ✓ Enabled, session found")
			} else {
				fmt.Println("WhatsApp: ✓ Enabled, no session yet (QR pairing on start)")
			}
		} else {
			fmt.Println("WhatsApp: ✗ Disabled")
		}

		if cfg.Channels.Slack.Enabled {
			fmt.Println("Slack:    ✓ Enabled")
		} else {
			fmt.Println("Slack:    ✗ Disabled")
		}

		if cfg.Events.Enabled {
			fmt.Printf("Events:   ✓ Kafka %s topic %s\n", cfg.Events.Brokers, cfg.Events.Topic)
		} else {
			fmt.Println("Events:   ✗ Disabled")
		}

		fmt.Println("Status:   Ready")
	},
}
