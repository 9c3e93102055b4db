package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid fixture id %q", arg)
	}
	return id, nil
}

func parseLevel(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("level %q must be a number between 0 and 1", arg)
	}
	return v, nil
}

var setCmd = &cobra.Command{
	Use:   "set <id> <intensity>",
	Short: "Set a fixture's intensity (0-1)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		intensity, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		if err := api.SetIntensity(id, intensity); err != nil {
			return fmt.Errorf("failed to set intensity: %w", err)
		}
		return nil
	},
}

var colorWhite float64

var colorCmd = &cobra.Command{
	Use:   "color <id> <r> <g> <b>",
	Short: "Set a fixture's color (components 0-1)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var rgb [3]float64
		for i, arg := range args[1:] {
			if rgb[i], err = parseLevel(arg); err != nil {
				return err
			}
		}
		if err := api.SetColor(id, rgb[0], rgb[1], rgb[2], colorWhite); err != nil {
			return fmt.Errorf("failed to set color: %w", err)
		}
		return nil
	},
}

var channelCmd = &cobra.Command{
	Use:   "channel <id> <offset> <value>",
	Short: "Write a raw channel value (offset 0-based within the fixture)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		offset, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid offset %q", args[1])
		}
		value, err := strconv.Atoi(args[2])
		if err != nil || value < 0 || value > 255 {
			return fmt.Errorf("value %q must be 0-255", args[2])
		}
		if err := api.SetChannel(id, offset, byte(value)); err != nil {
			return fmt.Errorf("failed to set channel: %w", err)
		}
		return nil
	},
}

var fadeCmd = &cobra.Command{
	Use:   "fade <id> <target> <seconds>",
	Short: "Fade a fixture's intensity to a target level",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		target, err := parseLevel(args[1])
		if err != nil {
			return err
		}
		duration, err := strconv.ParseFloat(args[2], 64)
		if err != nil || duration < 0 {
			return fmt.Errorf("duration %q must be a non-negative number of seconds", args[2])
		}
		if err := api.StartFade(id, target, duration); err != nil {
			return fmt.Errorf("failed to start fade: %w", err)
		}
		return nil
	},
}

var allOffCmd = &cobra.Command{
	Use:   "all-off",
	Short: "Black out every registered fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.AllOff(); err != nil {
			return fmt.Errorf("failed to black out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All fixtures off.")
		return nil
	},
}

func init() {
	colorCmd.Flags().Float64Var(&colorWhite, "white", 0, "white component for RGBW fixtures (0-1)")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(fadeCmd)
	rootCmd.AddCommand(allOffCmd)
}
