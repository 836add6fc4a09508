// Package cli implements the habitgrid command line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/habitgrid/habitgrid/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  _             _      _  _                 _      _\n" +
		" | |__    __ _ | |__  (_)| |_   __ _  _ __ (_)  __| |\n" +
		" | '_ \\  / _` || '_ \\ | || __| / _` || '__|| | / _` |\n" +
		" | | | || (_| || |_) || || |_ | (_| || |   | || (_| |\n" +
		" |_| |_| \\__,_||_.__/ |_| \\__| \\__, ||_|   |_| \\__,_|\n" +
		"                               |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "habitgrid",
	Short: "habitgrid - group chat habit tracker",
	Long:  color.CyanString(logo) + "\nA habit tracker bot for group chats with a weekly emoji calendar.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(onboardCmd)
}
