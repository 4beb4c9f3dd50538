package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/netbardus/macshare/internal/sharing"
	"github.com/netbardus/macshare/internal/util"
)

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn Internet Sharing off",
	Long: `Disable Internet Sharing and wait for the NAT bridge to go away.

The configured interface selection is kept in the NAT record so a later
'macshare toggle' can re-enable sharing with the same interfaces.`,
	RunE: runDisable,
}

func runDisable(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}

	util.ProgressStep(os.Stdout, "Disabling Internet Sharing\n")
	result, err := a.machine.Apply(ctx, sharing.DesiredState{Enable: false})
	if err != nil {
		return err
	}

	a.describeResult(result)
	return nil
}
