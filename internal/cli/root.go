package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chimera",
	Short: "Threat classification and mitigation service",
	Long: "Classifies incoming (source, payload) events as malicious, suspicious or normal,\n" +
		"picks a mitigation for threats, and keeps an event ledger with a block list.\n\n" +
		"Running without a subcommand starts the HTTP service.",
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
