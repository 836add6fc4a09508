package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/config"
	"github.com/habitgrid/habitgrid/internal/seed"
	"github.com/habitgrid/habitgrid/internal/tracker"
)

var seedChatID int64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install demo habits and users for a chat",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().Int64Var(&seedChatID, "chat", 0, "Chat id to seed")
	seedCmd.MarkFlagRequired("chat")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := tracker.NewTrackerService(cfg.TrackerDBPath())
	if err != nil {
		return fmt.Errorf("open tracker: %w", err)
	}
	defer store.Close()

	if err := seed.Apply(store, seedChatID, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Demo data ready for chat %d (no-op if it already had habits)\n", seedChatID)
	return nil
}
