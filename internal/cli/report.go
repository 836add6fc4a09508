package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/habitgrid/habitgrid/internal/config"
	"github.com/habitgrid/habitgrid/internal/report"
	"github.com/habitgrid/habitgrid/internal/tracker"
)

var (
	reportChatID int64
	reportDate   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a chat's weekly calendar to stdout",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().Int64Var(&reportChatID, "chat", 0, "Chat id to render")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Window end date (YYYY-MM-DD, default today)")
	reportCmd.MarkFlagRequired("chat")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	now := time.Now()
	if reportDate != "" {
		now, err = time.Parse(tracker.DateLayout, reportDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", reportDate)
		}
	}

	store, err := tracker.NewTrackerService(cfg.TrackerDBPath())
	if err != nil {
		return fmt.Errorf("open tracker: %w", err)
	}
	defer store.Close()

	text, err := report.NewRenderer(store, cfg.Report.Locale).Render(reportChatID, now)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}
