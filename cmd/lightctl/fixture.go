package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bbernstein/stagelights-go/pkg/client"
)

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Manage patched fixtures",
}

var fixtureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures, err := api.ListFixtures()
		if err != nil {
			return fmt.Errorf("failed to list fixtures: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tUNIVERSE\tCHANNELS\tRDM")
		for _, f := range fixtures {
			rdm := "-"
			if f.RDMUID != "" {
				rdm = f.RDMUID
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d-%d\t%s\n",
				f.ID, f.Name, f.Type, f.Universe, f.StartChannel, f.StartChannel+f.ChannelCount-1, rdm)
		}
		return w.Flush()
	},
}

var (
	registerName     string
	registerType     string
	registerUniverse int
	registerStart    int
	registerCount    int
	registerOffsets  []int
)

var fixtureRegisterCmd = &cobra.Command{
	Use:   "register <id>",
	Short: "Register a fixture at a channel range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid fixture id %q", args[0])
		}

		created, err := api.RegisterFixture(client.Fixture{
			ID:            id,
			Name:          registerName,
			Type:          registerType,
			Universe:      registerUniverse,
			StartChannel:  registerStart,
			ChannelCount:  registerCount,
			CustomOffsets: registerOffsets,
		})
		if err != nil {
			return fmt.Errorf("failed to register fixture: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered fixture %d (%s) universe %d channels %d-%d\n",
			created.ID, created.Type, created.Universe, created.StartChannel,
			created.StartChannel+created.ChannelCount-1)
		return nil
	},
}

var fixtureRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid fixture id %q", args[0])
		}
		if err := api.UnregisterFixture(id); err != nil {
			return fmt.Errorf("failed to remove fixture: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed fixture %d\n", id)
		return nil
	},
}

func init() {
	fixtureRegisterCmd.Flags().StringVar(&registerName, "name", "", "operator-facing label")
	fixtureRegisterCmd.Flags().StringVar(&registerType, "type", "DIMMABLE", "fixture type: DIMMABLE, RGB, RGBW, MOVING_HEAD, CUSTOM")
	fixtureRegisterCmd.Flags().IntVar(&registerUniverse, "universe", 0, "universe the fixture is patched into")
	fixtureRegisterCmd.Flags().IntVar(&registerStart, "start", 1, "first channel (1-512)")
	fixtureRegisterCmd.Flags().IntVar(&registerCount, "channels", 0, "channel count (0 = derive from type)")
	fixtureRegisterCmd.Flags().IntSliceVar(&registerOffsets, "offsets", nil, "custom color offsets (1-based, R,G,B)")

	fixtureCmd.AddCommand(fixtureListCmd)
	fixtureCmd.AddCommand(fixtureRegisterCmd)
	fixtureCmd.AddCommand(fixtureRemoveCmd)
	rootCmd.AddCommand(fixtureCmd)
}
