package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bbernstein/stagelights-go/pkg/client"
)

var (
	serverURL string
	api       *client.Client
)

// rootCmd is the base command for lightctl.
var rootCmd = &cobra.Command{
	Use:   "lightctl",
	Short: "StageLights CLI - patch fixtures, set levels, and inspect discovery",
	Long: `Lightctl is the operator-facing CLI for a running StageLights engine.
It registers and removes fixtures, sets intensity and color, starts fades,
and inspects discovered Art-Net nodes and RDM devices over the control API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		api = client.New(serverURL)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("STAGELIGHTS_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:4000"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "StageLights engine URL")
}
