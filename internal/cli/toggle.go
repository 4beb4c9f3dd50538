package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netbardus/macshare/internal/sharing"
	"github.com/netbardus/macshare/internal/util"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Flip Internet Sharing on or off",
	Long: `Enable sharing with the interfaces already configured in the NAT
record, or disable it if it is currently enabled.`,
	RunE: runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}

	rec, _, err := a.store.Read()
	if err != nil {
		return err
	}

	desired := sharing.DesiredState{Enable: !rec.Enabled}
	if desired.Enable {
		if rec.PrimaryDevice == "" || len(rec.SharingDevices) == 0 {
			return fmt.Errorf("no sharing configuration to re-enable: run 'macshare enable' first")
		}
		desired.SharingInterface = rec.PrimaryDevice
		desired.SharedInterfaces = rec.SharingDevices
	}

	if desired.Enable {
		util.ProgressStep(os.Stdout, "Enabling Internet Sharing: %s → %s\n",
			desired.SharingInterface, joinDevices(desired.SharedInterfaces))
	} else {
		util.ProgressStep(os.Stdout, "Disabling Internet Sharing\n")
	}

	result, err := a.machine.Apply(ctx, desired)
	if err != nil {
		return err
	}

	a.describeResult(result)
	return nil
}
