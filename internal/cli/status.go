package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current Internet Sharing state",
	Long: `Report whether the sharing daemon is running, which interfaces it
is sharing between, and the details of the NAT bridge if one is up.

Read-only; needs no privileges.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}

	rec, status, err := a.machine.Status(ctx)
	if err != nil {
		return err
	}

	if status.Running {
		fmt.Println("Internet Sharing: ON")
		fmt.Printf("  Sharing from: %s\n", status.ActiveSharingInterface)
		fmt.Printf("  Sharing to:   %s\n", joinDevices(status.ActiveSharedInterfaces))
	} else {
		fmt.Println("Internet Sharing: OFF")
	}

	if bridge := status.Bridge; bridge != nil {
		fmt.Printf("  Bridge: %s\n", bridge.Name)
		if bridge.IPv4 != "" {
			fmt.Printf("    inet:  %s\n", bridge.IPv4)
		}
		if bridge.IPv6 != "" {
			fmt.Printf("    inet6: %s\n", bridge.IPv6)
		}
		for _, member := range bridge.Members {
			fmt.Printf("    member: %s\n", member)
		}
	}

	fmt.Println("")
	if rec.PrimaryDevice != "" {
		fmt.Printf("Configured: %s → %s", rec.PrimaryDevice, joinDevices(rec.SharingDevices))
		if !rec.Enabled {
			fmt.Print(" (disabled)")
		}
		fmt.Println("")
	} else {
		fmt.Println("Configured: nothing")
		fmt.Fprintln(os.Stdout, "Run 'macshare enable' to configure sharing.")
	}

	return nil
}
