package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// StatusCmd connects to the configured environment and reports its
// lifecycle status, waiting briefly for initialization before giving up.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current client status",
	Long:  `Build a client against the configured environment and report whether it has initialized, is offline, or has failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		waitFor, _ := cmd.Flags().GetDuration("wait")

		spinner, _ := pterm.DefaultSpinner.Start("connecting to decisioning service")
		reg, err := buildRegistry(cmd)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		defer reg.Close(cmd.Context())

		primary, ok := reg.Primary()
		if !ok {
			spinner.Fail("no primary environment registered")
			return nil
		}

		initialized := primary.AwaitInitialized(waitFor)
		spinner.Stop()

		pterm.DefaultHeader.WithFullWidth().Println("flagcore status")

		status := primary.Status()
		switch {
		case initialized:
			pterm.Success.Printfln("environment %q initialized (status=%s)", primary.Name(), status)
		case status.String() == "Failed":
			pterm.Error.Printfln("environment %q failed to initialize (status=%s)", primary.Name(), status)
		default:
			pterm.Warning.Printfln("environment %q still initializing after %s (status=%s)", primary.Name(), waitFor, status)
		}

		pterm.Info.Printfln("offline=%v background=%v flags known=%d", primary.IsOffline(), primary.IsBackground(), len(primary.AllFlags()))
		return nil
	},
}

func init() {
	StatusCmd.Flags().Duration("wait", 3*time.Second, "how long to wait for initialization before reporting")
}
