package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/bot"
	"github.com/habitgrid/habitgrid/internal/bus"
	"github.com/habitgrid/habitgrid/internal/channels"
	"github.com/habitgrid/habitgrid/internal/config"
	"github.com/habitgrid/habitgrid/internal/events"
	"github.com/habitgrid/habitgrid/internal/report"
	"github.com/habitgrid/habitgrid/internal/tracker"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the habit tracker bot daemon",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	printHeader("🤖 habitgrid Bot")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := tracker.NewTrackerService(cfg.TrackerDBPath())
	if err != nil {
		return fmt.Errorf("open tracker: %w", err)
	}
	defer store.Close()

	msgBus := bus.NewMessageBus()
	publisher := events.NewPublisher(cfg.Events)
	defer publisher.Close()

	renderer := report.NewRenderer(store, cfg.Report.Locale)
	loop := bot.NewLoop(msgBus, store, renderer, publisher, cfg.Report.Pin)

	chs := []channels.Channel{
		channels.NewTelegramChannel(cfg.Channels.Telegram, msgBus),
		channels.NewWhatsAppChannel(cfg.Channels.WhatsApp, msgBus, cfg.WhatsAppDBPath()),
		channels.NewSlackChannel(cfg.Channels.Slack, msgBus),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for _, ch := range chs {
		if err := ch.Start(ctx); err != nil {
			fmt.Printf("Failed to start %s: %v\n", ch.Name(), err)
		}
	}

	go msgBus.DispatchOutbound(ctx)
	go loop.Run(ctx)

	fmt.Println("Bot is running. Press Ctrl+C to stop.")
	<-sigChan
	fmt.Println("\nShutting down...")

	cancel()
	msgBus.Stop()
	for _, ch := range chs {
		if err := ch.Stop(); err != nil {
			fmt.Printf("Failed to stop %s: %v\n", ch.Name(), err)
		}
	}
	return nil
}
