package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// FlushCmd signals every registered client's event sender to flush its
// buffered analytics events without waiting for delivery to complete.
var FlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Flush buffered analytics events",
	Long:  `Wake every registered environment's event sender so it posts its currently buffered events immediately instead of waiting for the next flush interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry(cmd)
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		reg.Flush()
		// Flush only signals; give the worker a moment to act before
		// this short-lived process tears the client down again.
		time.Sleep(200 * time.Millisecond)

		pterm.Success.Printfln("flush signaled for %d environment(s)", len(reg.Names()))
		return nil
	},
}
