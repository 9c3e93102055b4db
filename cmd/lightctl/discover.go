package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect discovered Art-Net nodes",
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List Art-Net nodes seen on the wire",
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := api.ListNodes()
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "IP\tNAME\tOUTPUTS\tLONG NAME")
		for _, n := range nodes {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", n.IP, n.Name, n.NumOutputs, n.LongName)
		}
		return w.Flush()
	},
}

var rdmCmd = &cobra.Command{
	Use:   "rdm",
	Short: "Inspect the RDM device cache",
}

var rdmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List RDM devices and their liveness",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := api.ListRDMDevices()
		if err != nil {
			return fmt.Errorf("failed to list rdm devices: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UID\tMAKE\tMODEL\tUNIVERSE\tCHANNELS\tONLINE\tFIXTURE")
		for _, d := range devices {
			state := "offline"
			if d.Online {
				state = "online"
			}
			linked := "-"
			if d.VirtualID != 0 {
				linked = fmt.Sprintf("%d", d.VirtualID)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d-%d\t%s\t%s\n",
				d.UID, d.Manufacturer, d.Model, d.Universe,
				d.StartChannel, d.StartChannel+d.ChannelCount-1, state, linked)
		}
		return w.Flush()
	},
}

func init() {
	nodeCmd.AddCommand(nodeListCmd)
	rdmCmd.AddCommand(rdmListCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(rdmCmd)
}
