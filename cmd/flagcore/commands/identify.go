package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/edgeflag/flagcore/model"
)

// IdentifyCmd installs a new user across every registered environment
// and reinitializes their connections.
var IdentifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify a user and reinitialize the client connection",
	Long:  `Install a new user (by key) as the shared user for every registered environment, then reinitialize each client's connection so it re-polls or reconnects for that user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			return fmt.Errorf("--key is required")
		}
		anonymous, _ := cmd.Flags().GetBool("anonymous")

		reg, err := buildRegistry(cmd)
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		user := model.User{Key: key, Anonymous: anonymous}
		if err := reg.Identify(cmd.Context(), user); err != nil {
			pterm.Error.Printfln("identify failed: %v", err)
			return err
		}

		pterm.Success.Printfln("identified user %q across %d environment(s)", key, len(reg.Names()))
		return nil
	},
}

func init() {
	IdentifyCmd.Flags().StringP("key", "u", "", "user key to identify")
	IdentifyCmd.Flags().Bool("anonymous", false, "mark the identified user as anonymous")
}
