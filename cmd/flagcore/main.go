package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgeflag/flagcore/cmd/flagcore/commands"
	"github.com/edgeflag/flagcore/logger"
)

var rootCmd = &cobra.Command{
	Use:   "flagcore",
	Short: "flagcore - feature-flag client SDK core, exercised from the command line",
	Long: `flagcore drives the feature-flag client library against a running
decisioning service: identify a user, inspect live status, flush
buffered analytics events, read back a variation, or run a small demo
server for local experimentation.

Examples:
  flagcore status                 # Show current client status
  flagcore identify --key bob     # Identify a user and reinitialize
  flagcore variation my-flag      # Read a flag's current value
  flagcore flush                  # Flush buffered analytics events
  flagcore serve-demo             # Run a local demo HTTP/SSE backend`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON logs instead of console output")
	rootCmd.PersistentFlags().StringP("mobile-key", "k", "", "mobile key for the primary environment (overrides config)")
	rootCmd.PersistentFlags().String("base-url", "", "base URL of the decisioning service (default http://localhost:8765)")

	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.IdentifyCmd)
	rootCmd.AddCommand(commands.FlushCmd)
	rootCmd.AddCommand(commands.VariationCmd)
	rootCmd.AddCommand(commands.ServeDemoCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
