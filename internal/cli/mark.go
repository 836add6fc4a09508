package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/config"
	"github.com/habitgrid/habitgrid/internal/tracker"
)

var (
	markChatID int64
	markUserID int64
	markHabit  string
	markDate   string
	markStatus string
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Set or reset a tracker mark",
	RunE:  runMark,
}

func init() {
	markCmd.Flags().Int64Var(&markChatID, "chat", 0, "Chat id")
	markCmd.Flags().Int64Var(&markUserID, "user", 0, "User id")
	markCmd.Flags().StringVar(&markHabit, "habit", "", "Habit id")
	markCmd.Flags().StringVar(&markDate, "date", "", "Date (YYYY-MM-DD, default today)")
	markCmd.Flags().StringVar(&markStatus, "status", "done", "Status: done | notdone | unknown")
	markCmd.MarkFlagRequired("chat")
	markCmd.MarkFlagRequired("user")
	markCmd.MarkFlagRequired("habit")
}

func runMark(cmd *cobra.Command, args []string) error {
	status, err := tracker.ParseStatus(markStatus)
	if err != nil {
		return err
	}
	date := markDate
	if date == "" {
		date = time.Now().Format(tracker.DateLayout)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := tracker.NewTrackerService(cfg.TrackerDBPath())
	if err != nil {
		return fmt.Errorf("open tracker: %w", err)
	}
	defer store.Close()

	if err := store.SetEntry(markChatID, markUserID, markHabit, date, status); err != nil {
		return err
	}
	fmt.Printf("Marked %s %s for user %d on %s\n", markHabit, status, markUserID, date)
	return nil
}
