package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List network interfaces and their sharing capabilities",
	RunE:  runInterfaces,
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}

	interfaces, err := a.catalog.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tNAME\tMEDIA\tSHARE FROM\tSHARE TO")
	for _, iface := range interfaces {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			iface.Device,
			iface.DisplayName,
			iface.Media,
			yesNo(iface.CanBeSharingSource),
			yesNo(iface.CanBeShared),
		)
	}
	return w.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
