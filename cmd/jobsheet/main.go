// Package main provides the entry point for the jobsheet CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobsheet [days]",
	Short: "Track job applications from your inbox in a Google Sheet",
	Long: `jobsheet scans the Gmail messages of the last [days] days (1-49), classifies the
ones about your job applications and keeps one row per company and role in a Google
Sheets tracking grid, always showing the most recent update.

Configuration comes from jobsheet.json (or the file named by JOBSHEET_CONFIG) and the
environment. When [days] is missing or invalid you are asked for it.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSession,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
