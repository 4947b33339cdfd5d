package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wikid82/chimera/backend/internal/simulator"
)

var (
	simType   string
	simTarget string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simType, "type", string(simulator.KindSQLInjection), "Attack pattern (sql_injection|ddos|mixed)")
	simulateCmd.Flags().StringVar(&simTarget, "target", "http://localhost:8000", "Base URL of a running instance")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send synthetic attack traffic to a running instance",
	Long: "Plays a canned attack pattern against a running instance over HTTP and\n" +
		"prints each response as JSON. Failed sends are reported inline.",
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	kind := simulator.Kind(simType)
	if !validKind(kind) {
		return fmt.Errorf("unknown attack type %q", simType)
	}

	sim := simulator.New(simulator.NewHTTPSender(simTarget))
	results := sim.Run(cmd.Context(), kind)

	out, err := json.MarshalIndent(map[string]any{"results": results, "count": len(results)}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func validKind(k simulator.Kind) bool {
	for _, known := range simulator.Kinds() {
		if k == known {
			return true
		}
	}
	return false
}
