package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/edgeflag/flagcore/variation"
)

// VariationCmd reads back a single flag's current value as text,
// falling back to the provided default on any error.
var VariationCmd = &cobra.Command{
	Use:   "variation <flag-key>",
	Short: "Read a flag's current value",
	Long:  `Build a client against the configured environment, wait for it to initialize, then print the named flag's value and evaluation reason.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		fallback, _ := cmd.Flags().GetString("default")
		waitFor, _ := cmd.Flags().GetDuration("wait")

		reg, err := buildRegistry(cmd)
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		primary, ok := reg.Primary()
		if !ok {
			return fmt.Errorf("no primary environment registered")
		}
		primary.AwaitInitialized(waitFor)

		detail := variation.TextDetail(primary, key, fallback)
		if detail.Reason.Kind != "" {
			pterm.Warning.Printfln("%s = %q (reason=%s, variation=%d)", key, detail.Value, detail.Reason.Kind, detail.VariationIndex)
			return nil
		}
		pterm.Success.Printfln("%s = %q (variation=%d)", key, detail.Value, detail.VariationIndex)
		return nil
	},
}

func init() {
	VariationCmd.Flags().String("default", "", "fallback value if the flag can't be resolved")
	VariationCmd.Flags().Duration("wait", 3*time.Second, "how long to wait for initialization before reading")
}
