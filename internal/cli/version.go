package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wikid82/chimera/backend/internal/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := json.MarshalIndent(version.Current(), "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	},
}
