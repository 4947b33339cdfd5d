package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wikid82/chimera/backend/internal/services"
)

func init() {
	rootCmd.AddCommand(hashTokenCmd)
}

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Print a bcrypt hash for CHIMERA_ADMIN_TOKEN_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := services.HashToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
