package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/netbardus/macshare/internal/catalog"
	"github.com/netbardus/macshare/internal/sharing"
	"github.com/netbardus/macshare/internal/util"
)

var (
	flagShareFrom   string
	flagShareTo     []string
	flagNetworkName string
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn Internet Sharing on",
	Long: `Share the connection of one interface with one or more others.

Writes the NAT configuration, restarts the sharing daemon and waits until
the NAT bridge comes up with the requested members. Interfaces may be named
by BSD device (en0), hardware port name (Wi-Fi) or network service name.
When run on a terminal without --share-from/--share-to, the interfaces are
picked interactively.`,
	RunE: runEnable,
}

func init() {
	enableCmd.Flags().StringVar(&flagShareFrom, "share-from", "", "interface providing the connection (device or port name)")
	enableCmd.Flags().StringSliceVar(&flagShareTo, "share-to", nil, "interfaces to share the connection to (comma-separated)")
	enableCmd.Flags().StringVar(&flagNetworkName, "network-name", "", "advertised network name")
}

func runEnable(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}

	shareFrom, shareTo := flagShareFrom, flagShareTo
	if shareFrom == "" || len(shareTo) == 0 {
		if !isInteractive() {
			if shareFrom == "" {
				return requireArgsOrPrompt("share-from")
			}
			return requireArgsOrPrompt("share-to")
		}
		shareFrom, shareTo, err = promptInterfaces(a, shareFrom, shareTo)
		if err != nil {
			return err
		}
	}

	networkName := flagNetworkName
	if networkName == "" {
		networkName = a.cfg.NetworkName
	}

	util.ProgressStep(os.Stdout, "Enabling Internet Sharing: %s → %s\n", shareFrom, joinDevices(shareTo))
	result, err := a.machine.Apply(ctx, sharing.DesiredState{
		Enable:           true,
		SharingInterface: shareFrom,
		SharedInterfaces: shareTo,
		NetworkName:      networkName,
	})
	if err != nil {
		return err
	}

	a.describeResult(result)
	return nil
}

// promptInterfaces fills in missing interface selections interactively.
func promptInterfaces(a *app, shareFrom string, shareTo []string) (string, []string, error) {
	interfaces, err := a.catalog.List()
	if err != nil {
		return "", nil, err
	}

	if shareFrom == "" {
		var sources []huh.Option[string]
		for _, iface := range interfaces {
			if iface.CanBeSharingSource {
				sources = append(sources, interfaceOption(iface))
			}
		}
		if len(sources) == 0 {
			return "", nil, fmt.Errorf("%w: no interface can provide a shared connection", catalog.ErrNotFound)
		}
		err := huh.NewSelect[string]().
			Title("Share connection from").
			Options(sources...).
			Value(&shareFrom).
			Run()
		if err != nil {
			return "", nil, fmt.Errorf("interface selection cancelled: %w", err)
		}
	}

	if len(shareTo) == 0 {
		var targets []huh.Option[string]
		for _, iface := range interfaces {
			if iface.CanBeShared && iface.Device != shareFrom {
				targets = append(targets, interfaceOption(iface))
			}
		}
		if len(targets) == 0 {
			return "", nil, fmt.Errorf("%w: no interface can receive the shared connection", catalog.ErrNotFound)
		}
		err := huh.NewMultiSelect[string]().
			Title("Share connection to").
			Options(targets...).
			Value(&shareTo).
			Run()
		if err != nil {
			return "", nil, fmt.Errorf("interface selection cancelled: %w", err)
		}
	}

	return shareFrom, shareTo, nil
}

func interfaceOption(iface catalog.Interface) huh.Option[string] {
	label := iface.Device
	if iface.DisplayName != iface.Device {
		label = fmt.Sprintf("%s (%s)", iface.DisplayName, iface.Device)
	}
	return huh.NewOption(label, iface.Device)
}
