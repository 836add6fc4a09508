package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/config"
)

var onboardForce bool

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration",
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().BoolVarP(&onboardForce, "force", "f", false, "Overwrite existing config")
}

func runOnboard(cmd *cobra.Command, args []string) error {
	printHeader("🚀 habitgrid Onboarding")

	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !onboardForce {
		fmt.Println("Config already exists: " + path)
		fmt.Println("Use --force to overwrite.")
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Println("Config written: " + path)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Put your bot token in " + path + " (channels.telegram.token)")
	fmt.Println("     or export TELEGRAM_BOT_TOKEN.")
	fmt.Println("  2. Add the bot to your group chat.")
	fmt.Println("  3. Run 'habitgrid bot'.")

	if cfg.Channels.Telegram.BotUsername != "" {
		link := "https://t.me/" + cfg.Channels.Telegram.BotUsername
		qrPath := filepath.Join(cfg.Paths.DataDir, "bot-link-qr.png")
		if err := qrcode.WriteFile(link, qrcode.Medium, 512, qrPath); err != nil {
			return fmt.Errorf("write qr: %w", err)
		}
		fmt.Println("\nBot link: " + link)
		fmt.Println("QR code:  " + qrPath)
	}
	return nil
}
